package dialog

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/weatherbot/core/telegram/state"
)

// Conversation states.
const (
	StateIdle                   = state.StateIdle
	StateAwaitingCity           state.State = "awaiting_city"
	StateAwaitingFavoriteAction state.State = "awaiting_favorite_action"
)

// KeyCurrentCity holds the city of the last successful lookup.
const KeyCurrentCity = "current_city"

const (
	minCityLen = 2
	maxCityLen = 50
)

// Trigger is an input to the state machine.
type Trigger string

const (
	TriggerGetWeather     Trigger = "get_weather"
	TriggerCityRejected   Trigger = "city_rejected"
	TriggerLookupFound    Trigger = "lookup_found"
	TriggerLookupFailed   Trigger = "lookup_failed"
	TriggerAddFavorite    Trigger = "add_favorite"
	TriggerRemoveFavorite Trigger = "remove_favorite"
	TriggerBack           Trigger = "back"
)

var (
	// ErrIllegalTransition is returned for a trigger the current state does not accept.
	ErrIllegalTransition = errors.New("dialog: illegal transition")
	// ErrCityLength rejects city names outside 2..50 characters.
	ErrCityLength = fmt.Errorf("dialog: city name must be %d-%d characters", minCityLen, maxCityLen)
)

var transitions = map[state.State]map[Trigger]state.State{
	StateIdle: {
		TriggerGetWeather: StateAwaitingCity,
		TriggerBack:       StateIdle,
	},
	StateAwaitingCity: {
		TriggerGetWeather:   StateAwaitingCity,
		TriggerCityRejected: StateAwaitingCity,
		TriggerLookupFound:  StateAwaitingFavoriteAction,
		TriggerLookupFailed: StateAwaitingCity,
		TriggerBack:         StateIdle,
	},
	StateAwaitingFavoriteAction: {
		TriggerGetWeather:     StateAwaitingCity,
		TriggerCityRejected:   StateAwaitingFavoriteAction,
		TriggerLookupFound:    StateAwaitingFavoriteAction,
		TriggerLookupFailed:   StateAwaitingCity,
		TriggerAddFavorite:    StateIdle,
		TriggerRemoveFavorite: StateIdle,
		TriggerBack:           StateIdle,
	},
}

// Next returns the state reached from cur on t.
func Next(cur state.State, t Trigger) (state.State, error) {
	if next, ok := transitions[cur][t]; ok {
		return next, nil
	}
	return cur, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, t, cur)
}

// Machine applies transitions to sessions held by a state.Manager.
type Machine struct {
	sessions state.Manager
}

// NewMachine binds the transition table to a session store.
func NewMachine(sessions state.Manager) *Machine {
	return &Machine{sessions: sessions}
}

// State returns the user's current state.
func (m *Machine) State(userID int64) state.State {
	return m.sessions.GetState(userID)
}

// Fire applies t for userID. Leaving a state through add, remove or back
// clears the session context.
func (m *Machine) Fire(userID int64, t Trigger) (state.State, error) {
	cur := m.sessions.GetState(userID)
	next, err := Next(cur, t)
	if err != nil {
		return cur, err
	}
	switch {
	case next == StateIdle:
		m.sessions.Reset(userID)
	case t == TriggerGetWeather, t == TriggerLookupFailed:
		m.sessions.ClearTemp(userID, KeyCurrentCity)
		m.sessions.SetState(userID, next)
	default:
		m.sessions.SetState(userID, next)
	}
	return next, nil
}

// Reset returns the user to idle from any state.
func (m *Machine) Reset(userID int64) {
	m.sessions.Reset(userID)
}

// SetCurrentCity remembers the city the user is looking at.
func (m *Machine) SetCurrentCity(userID int64, city string) {
	m.sessions.SetTemp(userID, KeyCurrentCity, city)
}

// CurrentCity returns the remembered city, if any.
func (m *Machine) CurrentCity(userID int64) (string, bool) {
	city, ok := m.sessions.GetTempString(userID, KeyCurrentCity)
	return city, ok && city != ""
}

// ValidateCity trims s and checks its length in characters.
func ValidateCity(s string) (string, error) {
	city := strings.TrimSpace(s)
	if n := utf8.RuneCountInString(city); n < minCityLen || n > maxCityLen {
		return city, ErrCityLength
	}
	return city, nil
}
