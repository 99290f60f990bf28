package core

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/game/protocol"
)

// Dispatch routes one inbound message from the player identified by uid to
// its handler. Unknown types and unknown sessions produce a user error, never
// a panic; the gateway calls this from each connection's read goroutine.
func (c *Core) Dispatch(uid string, msg protocol.ClientMessage) {
	sess, ok := c.sessions.Get(uid)
	if !ok {
		c.logger.Warn("message from unknown session", zap.String("uid", uid), zap.String("type", msg.Type))
		return
	}

	switch msg.Type {
	case protocol.TypeMove:
		c.handleMove(sess, msg.Direction)
	case protocol.TypeLook:
		c.handleLook(sess)
	case protocol.TypeMap:
		c.handleMap(sess)
	case protocol.TypeSay:
		c.handleSay(sess, msg.Text)
	case protocol.TypeTarget:
		c.handleTarget(sess, msg.Target)
	case protocol.TypeAttack:
		c.handleAttack(sess, msg.Target)
	case protocol.TypeSkill:
		c.handleSkill(sess, msg.Ability, msg.Target)
	case protocol.TypeCast:
		c.handleCast(sess, msg.Ability, msg.Target)
	case protocol.TypeHide:
		c.handleHide(sess)
	case protocol.TypeRest:
		c.handleRest(sess)
	case protocol.TypeMeditate:
		c.handleMeditate(sess)
	case protocol.TypePickLock:
		c.handlePickLock(sess, msg.Direction)
	case protocol.TypeSearch:
		c.handleSearch(sess)
	case protocol.TypeInteract:
		c.handleInteract(sess, msg.Feature)
	case protocol.TypeLoot:
		c.handleLoot(sess)
	case protocol.TypeVendor:
		c.handleVendor(sess)
	case protocol.TypeBuy:
		c.handleBuy(sess, msg.Item, msg.Quantity)
	case protocol.TypeSell:
		c.handleSell(sess, msg.Item, msg.Quantity)
	case protocol.TypeTrainer:
		c.handleTrainer(sess)
	case protocol.TypeLevelUp:
		c.handleLevelUp(sess)
	case protocol.TypeTrain:
		c.handleTrain(sess, msg.Stat)
	case protocol.TypeEquip:
		c.handleEquip(sess, msg.Item)
	case protocol.TypeUnequip:
		c.handleUnequip(sess, msg.Slot)
	case protocol.TypeUse:
		c.handleUse(sess, msg.Item)
	case protocol.TypeDrop:
		c.handleDrop(sess, msg.Item, msg.Quantity)
	case protocol.TypeGet:
		c.handleGet(sess, msg.Item, msg.Quantity)
	case protocol.TypeAdmin:
		c.handleAdmin(sess, msg.Text)
	default:
		c.fail(sess, "unknown command")
	}
}
