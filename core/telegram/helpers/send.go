package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func mdOptions(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup, DisableWebPagePreview: true}
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string) error {
	RecordMessage(c, false)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text)
	})
}

// SendMD sends a Markdown message with optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	rm := first(markup)
	RecordMessage(c, rm != nil)
	return sendAsync(c, "send.md", "sendMessage", func() error {
		return c.Send(text, mdOptions(rm))
	})
}

// EditOrSendMD edits the callback's message, or sends a new one for other updates.
// An unchanged message is not an error.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	rm := first(markup)
	RecordMessage(c, rm != nil)
	return sendAsync(c, "edit.md", "editMessageText", func() error {
		err := c.EditOrSend(text, mdOptions(rm))
		if IsNotModified(err) {
			return nil
		}
		return err
	})
}

// Respond answers the current callback query; text may be empty.
func Respond(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	return sendAsync(c, "respond", "answerCallbackQuery", func() error {
		return c.Respond(&tele.CallbackResponse{Text: text})
	})
}

// IsNotModified reports Telegram's "message is not modified" edit error.
func IsNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
