package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/effect"
)

func testClass() *catalog.Class {
	return &catalog.Class{
		ID: "warden", Name: "Warden", BaseHP: 20, BaseMP: 10,
		HPPerLevel: 5, MPPerLevel: 2,
		StartStats:        catalog.Stats{Might: 3, Agility: 2, Vitality: 3, Intellect: 1, Perception: 2},
		VitalityThreshold: 5, ThresholdBonusHP: 10,
	}
}

func testRace() *catalog.Race {
	return &catalog.Race{ID: "human", Name: "Human"}
}

func newTestSession(uid, name string) *Session {
	return New(Params{
		UID: uid, Name: name, Role: RolePlayer,
		Class: testClass(), Race: testRace(),
		LocationID: "town_square",
		Stats:      catalog.Stats{Might: 3, Agility: 2, Vitality: 3, Intellect: 1, Perception: 2},
		Level:      1, HP: 20, MaxHP: 20, MP: 10, MaxMP: 10,
		OutboxSize: 8, BackpackSlots: 20, BackpackWeight: 50,
	})
}

func TestActivityTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Activity
		to   Activity
		ok   bool
	}{
		{"idle to hidden", ActivityIdle, ActivityHidden, true},
		{"idle to resting", ActivityIdle, ActivityResting, true},
		{"hidden to idle", ActivityHidden, ActivityIdle, true},
		{"resting to engaged", ActivityResting, ActivityEngaged, true},
		{"hidden to engaged", ActivityHidden, ActivityEngaged, true},
		{"engaged to hidden", ActivityEngaged, ActivityHidden, false},
		{"resting to meditating", ActivityResting, ActivityMeditating, false},
		{"meditating to resting", ActivityMeditating, ActivityResting, false},
		{"engaged to resting", ActivityEngaged, ActivityResting, false},
		{"hidden to meditating", ActivityHidden, ActivityMeditating, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession("uid-1", "Aldric")
			if tc.from != ActivityIdle {
				require.NoError(t, s.SetActivity(tc.from))
			}
			err := s.SetActivity(tc.to)
			if tc.ok {
				assert.NoError(t, err)
				assert.Equal(t, tc.to, s.Activity())
			} else {
				assert.Error(t, err)
				assert.Equal(t, tc.from, s.Activity())
			}
		})
	}
}

func TestCooldownCountsDownExactly(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	s.StartCooldown("power_strike", 3)

	for i := 3; i > 0; i-- {
		assert.Equal(t, i, s.Cooldown("power_strike"))
		s.TickCooldowns()
	}
	assert.Equal(t, 0, s.Cooldown("power_strike"))
	s.TickCooldowns()
	assert.Equal(t, 0, s.Cooldown("power_strike"))
}

func TestCooldownNeverNegativeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := newTestSession("uid-1", "Aldric")
		n := rapid.IntRange(0, 10).Draw(t, "ticks")
		s.StartCooldown("kick", n)
		passes := rapid.IntRange(0, 20).Draw(t, "passes")
		for i := 0; i < passes; i++ {
			s.TickCooldowns()
			if cd := s.Cooldown("kick"); cd < 0 {
				t.Fatalf("cooldown went negative: %d", cd)
			}
		}
		want := n - passes
		if want < 0 {
			want = 0
		}
		if got := s.Cooldown("kick"); got != want {
			t.Fatalf("after %d passes of %d: got %d, want %d", passes, n, got, want)
		}
	})
}

func TestPendingSlotHoldsOne(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	require.NoError(t, s.SetPending(PendingSkill{SkillID: "power_strike", TargetID: "e-1"}))
	assert.Error(t, s.SetPending(PendingRest{}))

	p := s.TakePending()
	skill, ok := p.(PendingSkill)
	require.True(t, ok)
	assert.Equal(t, "power_strike", skill.SkillID)

	assert.Nil(t, s.TakePending())
	require.NoError(t, s.SetPending(PendingMeditate{}))
}

func TestVitalsClamping(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	assert.Equal(t, 0, s.Damage(100))
	assert.Equal(t, 20, s.Heal(100))

	require.NoError(t, s.SpendMana(10))
	assert.Error(t, s.SpendMana(1))
	assert.Equal(t, 10, s.RestoreMana(50))
}

func TestInvincibilityBlocksDamage(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	s.SetInvincible(true)
	assert.Equal(t, 20, s.Damage(15))
	s.SetInvincible(false)
	assert.Equal(t, 5, s.Damage(15))
}

func TestEffectiveStatSumsBuffs(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	s.ApplyEffect(effect.Active{Name: "bear", Kind: effect.KindStatBuff, Stat: catalog.StatMight, Magnitude: 2, Remaining: 3})

	got, err := s.EffectiveStat(catalog.StatMight)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	_, err = s.EffectiveStat("luck")
	assert.Error(t, err)
}

func TestCurrencyNeverNegative(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	s.AddCurrency(10)
	assert.Error(t, s.SpendCurrency(11))
	require.NoError(t, s.SpendCurrency(10))
	assert.Equal(t, 0, s.Currency())
}

func TestDiscoverySet(t *testing.T) {
	s := newTestSession("uid-1", "Aldric")
	assert.False(t, s.HasDiscovered("crypt/down"))
	s.Discover("crypt/down")
	assert.True(t, s.HasDiscovered("crypt/down"))
	assert.True(t, s.DiscoveredSet()["crypt/down"])
}
