package router

import (
	"log/slog"

	tg "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes every callback query through the registry by its unique key.
// Handlers answer the callback themselves.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		if cbHandler, ok := reg.GetCallback(key); ok {
			return handleWithSummary(c, name, func() error { return cbHandler(c) }, extras...)
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		extras = append(extras, slog.String("cause", "not_found"))
		return handleWithSummary(c, name, func() error {
			if fallback == nil {
				return c.Respond()
			}
			return fallback(c)
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
