package core

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// trainStatCost is the flat coin price of raising one stat by one point.
const trainStatCost = 25

// resolveTrainer finds the trainer sharing the session's location, sending
// the user error itself when there is none.
func (c *Core) resolveTrainer(sess *session.Session) *entity.Instance {
	trainer := c.entities.TrainerInLocation(sess.Location())
	if trainer == nil {
		c.fail(sess, "there is no one here to train you")
		return nil
	}
	return trainer
}

// handleTrainer reports what the trainer offers the session right now.
func (c *Core) handleTrainer(sess *session.Session) {
	trainer := c.resolveTrainer(sess)
	if trainer == nil {
		return
	}

	level := sess.Level()
	xp := sess.XP()
	need := catalog.XPForLevel(level + 1)
	currency := sess.Currency()
	c.push(sess, protocol.TrainerEvent{
		Trainer:      trainer.Name,
		Level:        level,
		XP:           xp,
		XPForNext:    need,
		CanLevelUp:   xp >= need,
		TrainCost:    trainStatCost,
		Currency:     currency,
		CanTrainStat: currency >= trainStatCost,
	})
}

// handleLevelUp advances the session one level when its XP total covers the
// next level's requirement.
//
// The first level-up carries a pinned quirk: if the character's base
// vitality meets the class threshold at that exact moment, the class bonus
// HP is granted once. Training vitality past the threshold after the first
// level-up grants nothing; the order dependence is deliberate and covered by
// tests.
func (c *Core) handleLevelUp(sess *session.Session) {
	trainer := c.resolveTrainer(sess)
	if trainer == nil {
		return
	}

	level := sess.Level()
	need := catalog.XPForLevel(level + 1)
	if sess.XP() < need {
		c.fail(sess, fmt.Sprintf("you need %d experience to advance", need))
		return
	}

	sess.SetLevel(level + 1)
	sess.RaiseMaxHP(sess.Class.HPPerLevel)
	sess.RaiseMaxMP(sess.Class.MPPerLevel)

	if level == 1 && sess.BaseStats().Vitality >= sess.Class.VitalityThreshold {
		sess.RaiseMaxHP(sess.Class.ThresholdBonusHP)
	}

	if !c.persistSyncOrFail(sess, "advancement") {
		c.sendVitals(sess)
		return
	}
	c.ok(sess, fmt.Sprintf("you advance to level %d", level+1))
	c.push(sess, protocol.ProgressEvent{
		XP:       sess.XP(),
		Level:    sess.Level(),
		Currency: sess.Currency(),
		Note:     fmt.Sprintf("welcome to level %d", sess.Level()),
	})
	c.sendVitals(sess)
	c.sessions.BroadcastToLocation(sess.Location(), protocol.SystemEvent{
		Text: fmt.Sprintf("%s has advanced to level %d", sess.Name, sess.Level()),
	}, sess.UID)
}

// handleTrain raises one base stat by one point for a flat coin price.
func (c *Core) handleTrain(sess *session.Session, stat string) {
	trainer := c.resolveTrainer(sess)
	if trainer == nil {
		return
	}
	if !catalog.ValidStatName(stat) {
		c.fail(sess, fmt.Sprintf("%q is not a trainable stat", stat))
		return
	}
	if err := sess.SpendCurrency(trainStatCost); err != nil {
		c.fail(sess, fmt.Sprintf("training costs %d coins", trainStatCost))
		return
	}
	if err := sess.TrainStat(stat); err != nil {
		sess.AddCurrency(trainStatCost)
		c.fail(sess, err.Error())
		return
	}

	if !c.persistSyncOrFail(sess, "training") {
		return
	}
	value, _ := sess.BaseStats().Get(stat)
	c.ok(sess, fmt.Sprintf("your %s rises to %d", stat, value))
}
