package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"}))
	require.NoError(t, reg.RegisterCommand("/weather", commands.Command{Handler: noop, Description: "Weather", Aliases: []string{"w"}}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true}))

	assert.Error(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}))
	assert.Error(t, reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"}))
	assert.Error(t, reg.RegisterCommand("/x", commands.Command{Description: "nil handler"}))

	assert.Equal(t, []tele.Command{
		{Text: "start", Description: "Start"},
		{Text: "weather", Description: "Weather"},
	}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 3)

	key, _, ok := reg.LookupCommand("/w")
	require.True(t, ok)
	assert.Equal(t, "/weather", key)
	key, _, ok = reg.LookupCommand("start")
	require.True(t, ok)
	assert.Equal(t, "/start", key)
	_, _, ok = reg.LookupCommand("Kyiv")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("fav_show", noop))
	require.NoError(t, reg.RegisterCallback("back", noop))
	assert.Error(t, reg.RegisterCallback("back", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("fav_show")
	assert.True(t, ok)
	_, ok = reg.GetCallback("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"back", "fav_show"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())
}

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)

	wh, ok := BuildPoller(PollerOptions{
		RunMode: "WEBHOOK",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://example.org/hook", wh.Endpoint.PublicURL)

	c := BuildHTTPClient(30 * time.Second)
	assert.Equal(t, 50*time.Second, c.Timeout)
}
