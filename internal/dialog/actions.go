// Package dialog implements the weather conversation: a small state machine
// over per-user sessions and the orchestrator that turns decoded chat events
// into replies.
package dialog

// Action is the tagged kind of an inbound event. Transport adapters decode
// commands, button presses and free text into one of these.
type Action string

const (
	ActionStart          Action = "start"
	ActionHelp           Action = "help"
	ActionGetWeather     Action = "get_weather"
	ActionFavorites      Action = "favorites"
	ActionBack           Action = "back"
	ActionAddFavorite    Action = "add_favorite"
	ActionRemoveFavorite Action = "remove_favorite"
	ActionFavShow        Action = "fav_show"
	ActionFavDelete      Action = "fav_delete"
	ActionText           Action = "text"
	ActionStats          Action = "stats"
)

var knownActions = map[Action]struct{}{
	ActionStart: {}, ActionHelp: {}, ActionGetWeather: {}, ActionFavorites: {},
	ActionBack: {}, ActionAddFavorite: {}, ActionRemoveFavorite: {},
	ActionFavShow: {}, ActionFavDelete: {}, ActionText: {}, ActionStats: {},
}

// ParseAction maps a callback key or command name to an Action.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := knownActions[a]
	return a, ok
}

// CallbackActions lists the actions that can arrive as inline button presses.
func CallbackActions() []Action {
	return []Action{
		ActionGetWeather, ActionFavorites, ActionBack, ActionAddFavorite,
		ActionRemoveFavorite, ActionFavShow, ActionFavDelete, ActionHelp,
	}
}

// Event is one decoded inbound update.
type Event struct {
	UserID int64
	Action Action
	// Payload is the opaque button payload, e.g. a favorite id.
	Payload string
	// Text is the raw message text for ActionText.
	Text         string
	FromCallback bool
	UserName     string
}

// Button is a suggested action rendered by the transport.
type Button struct {
	Label   string
	Action  Action
	Payload string
}

// Reply describes what the transport should deliver.
type Reply struct {
	// Text uses Telegram legacy Markdown.
	Text string
	Rows [][]Button
	// Edit asks the transport to edit the message the callback came from.
	Edit bool
	// Notice is a short toast shown when answering a callback.
	Notice string
}

// HasKeyboard reports whether the reply carries buttons.
func (r Reply) HasKeyboard() bool { return len(r.Rows) > 0 }
