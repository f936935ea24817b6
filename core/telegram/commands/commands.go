package commands

import tele "gopkg.in/telebot.v4"

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are rejected for everyone but the configured admin.
	AdminOnly bool
	// Hidden commands work but are not published in the menu.
	Hidden  bool
	Aliases []string
}
