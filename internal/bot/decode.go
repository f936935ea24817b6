// Package bot adapts the dialog orchestrator to Telegram: it decodes updates
// into dialog events, renders replies as inline keyboards and wires the
// commands, callbacks and middlewares into the core runtime.
package bot

import (
	"strings"

	"github.com/m3rciful/weatherbot/core/telegram/callbacks"
	"github.com/m3rciful/weatherbot/internal/dialog"

	tele "gopkg.in/telebot.v4"
)

var commandActions = map[string]dialog.Action{
	"start":     dialog.ActionStart,
	"help":      dialog.ActionHelp,
	"weather":   dialog.ActionGetWeather,
	"favorites": dialog.ActionFavorites,
	"stats":     dialog.ActionStats,
}

// Decode turns an update into a dialog event. It reports false for updates
// without a sender and for callbacks whose key names no known action.
func Decode(c tele.Context) (dialog.Event, bool) {
	user := c.Sender()
	if user == nil {
		return dialog.Event{}, false
	}
	ev := dialog.Event{UserID: user.ID, UserName: fullName(user)}

	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.ParseCallbackData(cb)
		action, ok := dialog.ParseAction(key)
		if !ok || action == dialog.ActionText {
			return dialog.Event{}, false
		}
		ev.Action, ev.Payload, ev.FromCallback = action, payload, true
		return ev, true
	}

	text := strings.TrimSpace(c.Text())
	if name, ok := commandName(text); ok {
		action, known := commandActions[name]
		if !known {
			action = dialog.ActionHelp
		}
		ev.Action = action
		return ev, true
	}
	ev.Action, ev.Text = dialog.ActionText, text
	return ev, true
}

// commandName extracts "start" from "/start@WeatherBot payload".
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), name != ""
}

// fullName joins first and last name the way Telegram clients display them.
func fullName(u *tele.User) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
