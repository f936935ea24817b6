package helpers

import tele "gopkg.in/telebot.v4"

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// ResetCounters zeroes the per-update reply counters.
func ResetCounters(c tele.Context) {
	c.Set(messagesKey, 0)
	c.Set(keyboardKey, false)
}

// RecordMessage counts one outgoing message for the current update.
func RecordMessage(c tele.Context, hasKeyboard bool) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if hasKeyboard {
		c.Set(keyboardKey, true)
	}
}

// Counters returns how many messages were produced for the update and
// whether any of them carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}
