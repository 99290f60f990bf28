package core

import (
	"strings"

	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// maxSayLength bounds a single chat line.
const maxSayLength = 512

// handleSay broadcasts speech to everyone in the speaker's location,
// including the speaker (so the client renders their own line). Speaking
// while hidden gives the speaker away.
func (c *Core) handleSay(sess *session.Session, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.fail(sess, "say what?")
		return
	}
	if len(text) > maxSayLength {
		text = text[:maxSayLength]
	}

	if sess.IsHidden() {
		_ = sess.SetActivity(session.ActivityIdle)
		c.ok(sess, "you step out of the shadows")
	}

	c.sessions.BroadcastToLocation(sess.Location(), protocol.ChatEvent{
		From: sess.Name,
		Text: text,
	})
}
