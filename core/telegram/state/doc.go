// Package state keeps per-user conversation sessions for Telegram bots.
// It knows nothing about the states a bot defines; bots declare their own
// State values and drive transitions themselves.
package state
