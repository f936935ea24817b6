// Package callbacks decodes telebot inline button data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// MaxDataLen is Telegram's limit for callback data in bytes.
const MaxDataLen = 64

// Encode builds the data telebot produces for a button: \f<unique>|<payload>.
func Encode(unique, payload string) string {
	if payload == "" {
		return "\f" + unique
	}
	return "\f" + unique + "|" + payload
}

// ParseCallbackData splits telebot's \f<unique>|<payload> encoding.
// When telebot already matched the button, Unique is set and Data holds only the payload.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey returns the unique key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackPayload returns the payload after '|' of the current callback.
func CallbackPayload(c tele.Context) string {
	_, p := ParseCallbackData(c.Callback())
	return p
}
