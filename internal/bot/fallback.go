package bot

import (
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

const (
	textOnlyCities = "I can only read city names sent as text. Type a city or press /start."
	textButtonGone = "This button is no longer available."
	textSlowDown   = "Too many requests, please slow down."
)

type fallbacks struct {
	text tele.HandlerFunc
}

var _ ui.FallbackProvider = fallbacks{}

// UnknownText hands stray text to the dialog, which answers with a hint.
func (f fallbacks) UnknownText() tele.HandlerFunc { return f.text }

func (fallbacks) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, textOnlyCities) }
}

func (fallbacks) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.Respond(c, textButtonGone) }
}

func (fallbacks) RateLimited() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return tghelpers.Respond(c, textSlowDown)
		}
		return tghelpers.SendText(c, textSlowDown)
	}
}
