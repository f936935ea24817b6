package router

import (
	"time"

	tg "github.com/m3rciful/weatherbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FSM reports whether a user is in the middle of a conversation.
type FSM interface {
	InProgress(userID int64) bool
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	// Conversation handles text while the user's FSM is in progress.
	Conversation    tele.HandlerFunc
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for plain text and documents. Text goes to the
// conversation handler when the FSM is in progress, then to command aliases,
// then to the registry fallback.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		inProgress := fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID)
		if inProgress && opts.Conversation != nil {
			return handleWithSummary(c, "fsm", func() error { return opts.Conversation(c) })
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error { return fb(c) })
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", func() error { return opts.UnknownText(c) })
		}
		logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", func() error { return opts.UnknownDocument(c) })
		}
		logHandlerSummary(c, "unexpected_document", time.Now(), "skip", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: handler},
		{Endpoint: tele.OnDocument, Handler: docHandler},
		{Endpoint: tele.OnPhoto, Handler: docHandler},
	}
}
