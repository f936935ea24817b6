package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type codedErr struct{}

func (codedErr) Error() string { return "weather down" }
func (codedErr) Code() string  { return "weather unavailable" }

type plainErr struct{}

func (*plainErr) Error() string { return "x" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "WEATHER_UNAVAILABLE", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "PLAINERR", deriveErrorCode(&plainErr{}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "weather", normalizeHandlerName("/Weather"))
	assert.Equal(t, "unknown", normalizeHandlerName("  "))
	assert.Equal(t, "fav_show", normalizeHandlerName("fav show"))
}

type fsmStub map[int64]bool

func (f fsmStub) InProgress(id int64) bool { return f[id] }

func textCtx(t *testing.T, userID int64, text string) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Text: text, Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID},
	}})
}

func TestTextRoutes(t *testing.T) {
	var got []string
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{
		Description: "Help", Aliases: []string{"?"},
		Handler:     func(tele.Context) error { got = append(got, "help"); return nil },
	}))
	reg.SetTextFallback(func(tele.Context) error { got = append(got, "fallback"); return nil })

	routes := TextRoutes(fsmStub{1: true}, reg, TextOptions{
		Conversation: func(tele.Context) error { got = append(got, "fsm"); return nil },
	})
	require.Len(t, routes, 3)
	text := routes[0].Handler

	require.NoError(t, text(textCtx(t, 1, "Kyiv")))
	require.NoError(t, text(textCtx(t, 2, "?")))
	require.NoError(t, text(textCtx(t, 2, "Kyiv")))
	assert.Equal(t, []string{"fsm", "help", "fallback"}, got)
}
