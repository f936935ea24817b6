package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/internal/dialog"

	tele "gopkg.in/telebot.v4"
)

func newBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func messageCtx(t *testing.T, text string) tele.Context {
	return newBot(t).NewContext(tele.Update{ID: 7, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: 100, FirstName: "Ann", LastName: "Lee"},
		Chat:   &tele.Chat{ID: 100},
	}})
}

func callbackCtx(t *testing.T, data string) tele.Context {
	return newBot(t).NewContext(tele.Update{ID: 8, Callback: &tele.Callback{
		ID:     "cb",
		Data:   data,
		Sender: &tele.User{ID: 100},
		Message: &tele.Message{
			ID: 3, Text: "old", Chat: &tele.Chat{ID: 100},
		},
	}})
}

func TestDecodeCommands(t *testing.T) {
	cases := map[string]dialog.Action{
		"/start":             dialog.ActionStart,
		"/weather":           dialog.ActionGetWeather,
		"/favorites@SkyBot":  dialog.ActionFavorites,
		"/HELP":              dialog.ActionHelp,
		"/stats":             dialog.ActionStats,
		"/unknown something": dialog.ActionHelp,
	}
	for text, want := range cases {
		ev, ok := Decode(messageCtx(t, text))
		require.True(t, ok, text)
		assert.Equal(t, want, ev.Action, text)
		assert.Equal(t, int64(100), ev.UserID)
		assert.False(t, ev.FromCallback)
	}
}

func TestDecodeText(t *testing.T) {
	ev, ok := Decode(messageCtx(t, "  New York "))
	require.True(t, ok)
	assert.Equal(t, dialog.ActionText, ev.Action)
	assert.Equal(t, "New York", ev.Text)
	assert.Equal(t, "Ann Lee", ev.UserName)
}

func TestDecodeCallback(t *testing.T) {
	ev, ok := Decode(callbackCtx(t, "\ffav_show|42"))
	require.True(t, ok)
	assert.Equal(t, dialog.ActionFavShow, ev.Action)
	assert.Equal(t, "42", ev.Payload)
	assert.True(t, ev.FromCallback)

	ev, ok = Decode(callbackCtx(t, "\fback"))
	require.True(t, ok)
	assert.Equal(t, dialog.ActionBack, ev.Action)
	assert.Empty(t, ev.Payload)
}

func TestDecodeRejects(t *testing.T) {
	_, ok := Decode(callbackCtx(t, "\fbogus|1"))
	assert.False(t, ok)

	_, ok = Decode(callbackCtx(t, "\ftext|London"))
	assert.False(t, ok)

	c := newBot(t).NewContext(tele.Update{ID: 9, Message: &tele.Message{Text: "hi", Chat: &tele.Chat{ID: 1}}})
	_, ok = Decode(c)
	assert.False(t, ok)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ann", fullName(&tele.User{FirstName: "Ann"}))
	assert.Equal(t, "Ann Lee", fullName(&tele.User{FirstName: " Ann ", LastName: "Lee"}))
	assert.Equal(t, "Lee", fullName(&tele.User{LastName: "Lee"}))
}
