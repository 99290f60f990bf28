package core

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// handleAdmin executes a slash-prefixed admin command. The namespace is
// privilege-gated; every mutation goes through the same validation and
// broadcast paths as the player-facing handlers.
func (c *Core) handleAdmin(sess *session.Session, line string) {
	if !sess.IsAdmin() {
		c.fail(sess, "unknown command")
		return
	}

	line = strings.TrimSpace(strings.TrimPrefix(line, "/"))
	fields := strings.Fields(line)
	if len(fields) == 0 {
		c.fail(sess, "admin: empty command")
		return
	}
	cmd, args := fields[0], fields[1:]

	c.logger.Info("admin command",
		zap.String("uid", sess.UID),
		zap.String("command", cmd),
		zap.Strings("args", args))

	switch cmd {
	case "grantxp":
		c.adminGrantXP(sess, args)
	case "grantcoins":
		c.adminGrantCoins(sess, args)
	case "grantitem":
		c.adminGrantItem(sess, args)
	case "setlevel":
		c.adminSetLevel(sess, args)
	case "setstat":
		c.adminSetStat(sess, args)
	case "heal":
		c.adminHeal(sess, args)
	case "teleport":
		c.adminTeleport(sess, args)
	case "spawn":
		c.adminSpawn(sess, args)
	case "kill":
		c.adminKill(sess, args)
	case "broadcast":
		c.adminBroadcast(sess, args)
	case "invincible":
		on := sess.SetInvincible(!sess.IsInvincible())
		c.ok(sess, fmt.Sprintf("invincibility %v", on))
	default:
		c.fail(sess, fmt.Sprintf("admin: unknown command %q", cmd))
	}
}

// adminTargetSession resolves a player-name argument, sending the user error
// itself on failure.
func (c *Core) adminTargetSession(sess *session.Session, name string) *session.Session {
	target, ok := c.sessions.GetByName(name)
	if !ok {
		c.fail(sess, fmt.Sprintf("no player named %q is online", name))
		return nil
	}
	return target
}

func (c *Core) adminGrantXP(sess *session.Session, args []string) {
	if len(args) != 2 {
		c.fail(sess, "usage: /grantxp <player> <amount>")
		return
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount < 1 {
		c.fail(sess, "amount must be a positive number")
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	xp := target.AddXP(amount)
	c.push(target, protocol.ProgressEvent{XP: xp, Level: target.Level(), Currency: target.Currency(), Note: fmt.Sprintf("you gain %d experience", amount)})
	c.ok(sess, fmt.Sprintf("granted %d xp to %s", amount, target.Name))
	c.persistAsync(target)
}

func (c *Core) adminGrantCoins(sess *session.Session, args []string) {
	if len(args) != 2 {
		c.fail(sess, "usage: /grantcoins <player> <amount>")
		return
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount < 1 {
		c.fail(sess, "amount must be a positive number")
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	total := target.AddCurrency(amount)
	c.push(target, protocol.ProgressEvent{XP: target.XP(), Level: target.Level(), Currency: total, Note: fmt.Sprintf("you receive %d coins", amount)})
	c.ok(sess, fmt.Sprintf("granted %d coins to %s", amount, target.Name))
	c.persistAsync(target)
}

func (c *Core) adminGrantItem(sess *session.Session, args []string) {
	if len(args) < 2 || len(args) > 3 {
		c.fail(sess, "usage: /grantitem <player> <item> [qty]")
		return
	}
	qty := 1
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 1 {
			c.fail(sess, "qty must be a positive number")
			return
		}
		qty = n
	}
	item, ok := c.catalogs.Item(args[1])
	if !ok {
		c.fail(sess, fmt.Sprintf("no item %q in the catalog", args[1]))
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	if err := target.Backpack.Add(item, qty); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, fmt.Sprintf("granted %d x %s to %s", qty, item.Name, target.Name))
	c.sendInventory(target)
	c.persistInventoryAsync(target)
}

func (c *Core) adminSetLevel(sess *session.Session, args []string) {
	if len(args) != 2 {
		c.fail(sess, "usage: /setlevel <player> <level>")
		return
	}
	level, err := strconv.Atoi(args[1])
	if err != nil || level < 1 {
		c.fail(sess, "level must be >= 1")
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	target.SetLevel(level)
	c.ok(sess, fmt.Sprintf("%s is now level %d", target.Name, level))
	c.persistAsync(target)
}

func (c *Core) adminSetStat(sess *session.Session, args []string) {
	if len(args) != 3 {
		c.fail(sess, "usage: /setstat <player> <stat> <value>")
		return
	}
	if !catalog.ValidStatName(args[1]) {
		c.fail(sess, fmt.Sprintf("%q is not a stat", args[1]))
		return
	}
	value, err := strconv.Atoi(args[2])
	if err != nil || value < 0 {
		c.fail(sess, "value must be >= 0")
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	current, _ := target.BaseStats().Get(args[1])
	if err := target.AdjustStat(args[1], value-current); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, fmt.Sprintf("%s's %s is now %d", target.Name, args[1], value))
	c.persistAsync(target)
}

func (c *Core) adminHeal(sess *session.Session, args []string) {
	if len(args) != 1 {
		c.fail(sess, "usage: /heal <player>")
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	_, maxHP, _, maxMP := target.Vitals()
	target.Heal(maxHP)
	target.RestoreMana(maxMP)
	c.sendVitals(target)
	c.ok(sess, fmt.Sprintf("%s is restored", target.Name))
}

func (c *Core) adminTeleport(sess *session.Session, args []string) {
	if len(args) != 2 {
		c.fail(sess, "usage: /teleport <player> <location>")
		return
	}
	loc, ok := c.graph.GetLocation(args[1])
	if !ok {
		c.fail(sess, fmt.Sprintf("no location %q", args[1]))
		return
	}
	target := c.adminTargetSession(sess, args[0])
	if target == nil {
		return
	}
	c.disengage(target)
	from := target.Location()
	if _, err := c.sessions.Move(target.UID, loc.ID); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.sessions.BroadcastToLocation(from, protocol.MoveEvent{Name: target.Name, Arrived: false, Location: from}, target.UID)
	c.sessions.BroadcastToLocation(loc.ID, protocol.MoveEvent{Name: target.Name, Arrived: true, Location: loc.ID}, target.UID)
	c.ok(sess, fmt.Sprintf("%s teleported to %s", target.Name, loc.Title))
	c.handleLook(target)
	c.persistAsync(target)
}

func (c *Core) adminSpawn(sess *session.Session, args []string) {
	if len(args) != 1 {
		c.fail(sess, "usage: /spawn <template>")
		return
	}
	inst, err := c.entities.Spawn(args[0], sess.Location())
	if err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, fmt.Sprintf("spawned %s", inst.Name))
	c.sessions.BroadcastToLocation(sess.Location(), protocol.SystemEvent{
		Text: fmt.Sprintf("a %s appears", inst.Name),
	}, sess.UID)
}

func (c *Core) adminKill(sess *session.Session, args []string) {
	if len(args) != 1 {
		c.fail(sess, "usage: /kill <target>")
		return
	}
	inst := c.entities.FindInLocation(sess.Location(), args[0])
	if inst == nil {
		c.fail(sess, fmt.Sprintf("there is no %s here", args[0]))
		return
	}
	inst.Damage(inst.CurrentHP())
	c.resolveKill(sess, inst)
	c.ok(sess, fmt.Sprintf("%s falls", inst.Name))
}

func (c *Core) adminBroadcast(sess *session.Session, args []string) {
	if len(args) == 0 {
		c.fail(sess, "usage: /broadcast <text>")
		return
	}
	c.sessions.BroadcastToAll(protocol.SystemEvent{Text: strings.Join(args, " ")})
}
