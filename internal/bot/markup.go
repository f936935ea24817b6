package bot

import (
	"log/slog"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/keyboard"
	"github.com/m3rciful/weatherbot/internal/dialog"

	tele "gopkg.in/telebot.v4"
)

// Markup renders suggested buttons as an inline keyboard; the action name is
// the callback key. Buttons over the callback size limit are dropped.
func Markup(rows [][]dialog.Button) *tele.ReplyMarkup {
	kb := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		out := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btn := keyboard.InlineBtn{Text: b.Label, Unique: string(b.Action), Data: b.Payload}
			if err := btn.Validate(); err != nil {
				logger.Warn(logger.Background(), "tg", "button.drop",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
				continue
			}
			out = append(out, btn)
		}
		kb = append(kb, out)
	}
	return keyboard.InlineButtonsRows(kb...)
}
