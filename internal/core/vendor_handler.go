package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// resolveVendor finds the vendor sharing the session's location, sending the
// user error itself when there is none.
func (c *Core) resolveVendor(sess *session.Session) *entity.Instance {
	vendor := c.entities.VendorInLocation(sess.Location())
	if vendor == nil {
		c.fail(sess, "there is no one here to trade with")
		return nil
	}
	return vendor
}

// handleVendor lists the local vendor's wares with buy prices.
func (c *Core) handleVendor(sess *session.Session) {
	vendor := c.resolveVendor(sess)
	if vendor == nil {
		return
	}

	wares := make([]protocol.VendorWare, 0, len(vendor.Template.Wares))
	for _, id := range vendor.Template.Wares {
		item, ok := c.catalogs.Item(id)
		if !ok {
			c.logger.Warn("vendor ware references unknown item",
				zap.String("vendor", vendor.TemplateID),
				zap.String("item", id))
			continue
		}
		wares = append(wares, protocol.VendorWare{ID: item.ID, Name: item.Name, Price: item.Value})
	}
	c.push(sess, protocol.VendorEvent{Vendor: vendor.Name, Wares: wares})
}

// handleBuy purchases from the local vendor. Currency is spent before the
// item lands; on a backpack failure the coins are refunded. The new balance
// is persisted synchronously before the result is reported.
func (c *Core) handleBuy(sess *session.Session, name string, qty int) {
	if qty <= 0 {
		qty = 1
	}
	vendor := c.resolveVendor(sess)
	if vendor == nil {
		return
	}

	for _, id := range vendor.Template.Wares {
		item, ok := c.catalogs.Item(id)
		if !ok || (item.ID != name && item.Name != name) {
			continue
		}

		cost := item.Value * qty
		if err := sess.SpendCurrency(cost); err != nil {
			c.fail(sess, fmt.Sprintf("you cannot afford %d x %s (%d coins)", qty, item.Name, cost))
			return
		}
		if err := sess.Backpack.Add(item, qty); err != nil {
			sess.AddCurrency(cost)
			c.fail(sess, err.Error())
			return
		}

		if !c.persistSyncOrFail(sess, "purchase") {
			c.sendInventory(sess)
			return
		}
		c.persistInventoryAsync(sess)
		c.ok(sess, fmt.Sprintf("you buy %d x %s for %d coins", qty, item.Name, cost))
		c.sendInventory(sess)
		return
	}
	c.fail(sess, fmt.Sprintf("%s does not sell that", vendor.Name))
}

// handleSell sells carried items to the local vendor at half the buy value.
// Selling is strictly lossy: a buy/sell round trip always costs coins.
func (c *Core) handleSell(sess *session.Session, name string, qty int) {
	if qty <= 0 {
		qty = 1
	}
	vendor := c.resolveVendor(sess)
	if vendor == nil {
		return
	}

	item, ok := sess.Backpack.Find(name)
	if !ok {
		c.fail(sess, fmt.Sprintf("you are not carrying a %s", name))
		return
	}
	if err := sess.Backpack.Remove(item.ID, qty); err != nil {
		c.fail(sess, err.Error())
		return
	}

	payout := item.SellValue() * qty
	sess.AddCurrency(payout)

	if !c.persistSyncOrFail(sess, "sale") {
		c.sendInventory(sess)
		return
	}
	c.persistInventoryAsync(sess)
	c.ok(sess, fmt.Sprintf("you sell %d x %s for %d coins", qty, item.Name, payout))
	c.sendInventory(sess)
}
