// Package keyboard builds telebot inline keyboards.
package keyboard

import (
	"fmt"

	"github.com/m3rciful/weatherbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Validate checks the encoded callback data against Telegram's size limit.
func (b InlineBtn) Validate() error {
	if b.Unique == "" {
		return fmt.Errorf("button %q: empty unique", b.Text)
	}
	if n := len(callbacks.Encode(b.Unique, b.Data)); n > callbacks.MaxDataLen {
		return fmt.Errorf("button %q: callback data is %d bytes, limit %d", b.Text, n, callbacks.MaxDataLen)
	}
	return nil
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// Empty rows are skipped; nil is returned when nothing is left.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline = append(inline, r)
	}
	if len(inline) == 0 {
		return nil
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineButtonsNPerRow splits a flat list of buttons into rows of up to n.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n <= 0 {
		n = 1
	}
	var rows [][]InlineBtn
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return InlineButtonsRows(rows...)
}
