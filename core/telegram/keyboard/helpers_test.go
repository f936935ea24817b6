package keyboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "Kyiv", Unique: "fav_show", Data: "1"}, {Text: "x", Unique: "fav_delete", Data: "1"}},
		nil,
		[]InlineBtn{{Text: "Back", Unique: "back"}},
	)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Equal(t, "fav_show", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "Back", m.InlineKeyboard[1][0].Text)

	assert.Nil(t, InlineButtonsRows())
}

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := []InlineBtn{{Text: "a", Unique: "a"}, {Text: "b", Unique: "b"}, {Text: "c", Unique: "c"}}
	m := InlineButtonsNPerRow(btns, 2)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[1], 1)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, InlineBtn{Text: "ok", Unique: "fav_show", Data: "123456"}.Validate())
	assert.Error(t, InlineBtn{Text: "long", Unique: "fav_show", Data: strings.Repeat("x", 60)}.Validate())
	assert.Error(t, InlineBtn{Text: "none"}.Validate())
}
