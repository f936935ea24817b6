package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/format"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/internal/favorites"
	"github.com/m3rciful/weatherbot/internal/weather"
)

// WeatherClient looks up current conditions by city name.
type WeatherClient interface {
	Fetch(ctx context.Context, city string) (weather.Report, error)
}

// FavoritesStore is the bookmark persistence used by the orchestrator.
type FavoritesStore interface {
	Add(ctx context.Context, userID int64, city string) (bool, error)
	Remove(ctx context.Context, userID int64, city string) (bool, error)
	Entries(ctx context.Context, userID int64) ([]favorites.Favorite, error)
	Get(ctx context.Context, userID, id int64) (favorites.Favorite, error)
	IsFavorite(ctx context.Context, userID int64, city string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Options tunes the orchestrator.
type Options struct {
	// AdminID may use the stats action. Zero disables it.
	AdminID int64
}

// Orchestrator handles one event at a time per user. All state mutation
// happens before the reply is built, so redelivering a reply is harmless.
type Orchestrator struct {
	weather  WeatherClient
	favs     FavoritesStore
	sessions state.Manager
	machine  *Machine
	adminID  int64
}

// New wires the orchestrator to its collaborators.
func New(w WeatherClient, favs FavoritesStore, sessions state.Manager, opts Options) *Orchestrator {
	return &Orchestrator{
		weather:  w,
		favs:     favs,
		sessions: sessions,
		machine:  NewMachine(sessions),
		adminID:  opts.AdminID,
	}
}

// Handle processes ev and returns the reply to deliver. Unexpected errors
// and panics are turned into a generic apology.
func (o *Orchestrator) Handle(ctx context.Context, ev Event) (reply Reply) {
	start := time.Now()
	from := o.machine.State(ev.UserID)

	defer func() {
		if r := recover(); r != nil {
			reply = apology()
			logger.Error(ctx, "dialog", "handle.panic",
				slog.String("status", "fail"),
				slog.String("action", string(ev.Action)),
				slog.String("state", string(from)),
				slog.Any("panic", r),
			)
		}
	}()

	reply, err := o.dispatch(ctx, ev, from)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("action", string(ev.Action)),
		slog.String("state", string(from)),
		slog.String("next_state", string(o.machine.State(ev.UserID))),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, "dialog", "handle", attrs...)
		return apology()
	}
	logger.Debug(ctx, "dialog", "handle", attrs...)
	return reply
}

func (o *Orchestrator) dispatch(ctx context.Context, ev Event, cur state.State) (Reply, error) {
	switch ev.Action {
	case ActionStart:
		o.machine.Reset(ev.UserID)
		return Reply{Text: greeting(ev.UserName), Rows: mainMenu()}, nil
	case ActionHelp:
		return Reply{Text: textHelp, Rows: mainMenu()}, nil
	case ActionBack:
		o.machine.Reset(ev.UserID)
		return Reply{Text: textMenu, Rows: mainMenu(), Edit: ev.FromCallback}, nil
	case ActionGetWeather:
		if _, err := o.machine.Fire(ev.UserID, TriggerGetWeather); err != nil {
			return Reply{}, err
		}
		return Reply{Text: textAskCity, Rows: [][]Button{backRow()}, Edit: ev.FromCallback}, nil
	case ActionFavorites:
		o.machine.Reset(ev.UserID)
		return o.listView(ctx, ev, "")
	case ActionText:
		return o.onText(ctx, ev, cur)
	case ActionAddFavorite:
		return o.toggleFavorite(ctx, ev, TriggerAddFavorite)
	case ActionRemoveFavorite:
		return o.toggleFavorite(ctx, ev, TriggerRemoveFavorite)
	case ActionFavShow:
		return o.showFavorite(ctx, ev)
	case ActionFavDelete:
		return o.deleteFavorite(ctx, ev)
	case ActionStats:
		return o.stats(ctx, ev)
	}
	return Reply{}, fmt.Errorf("dialog: unknown action %q", ev.Action)
}

func (o *Orchestrator) onText(ctx context.Context, ev Event, cur state.State) (Reply, error) {
	switch cur {
	case StateAwaitingCity, StateAwaitingFavoriteAction:
		return o.lookup(ctx, ev)
	}
	return Reply{Text: textIdleHint, Rows: mainMenu()}, nil
}

// lookup validates the typed city, fetches it and moves the session on.
func (o *Orchestrator) lookup(ctx context.Context, ev Event) (Reply, error) {
	city, err := ValidateCity(ev.Text)
	if err != nil {
		if _, ferr := o.machine.Fire(ev.UserID, TriggerCityRejected); ferr != nil {
			return Reply{}, ferr
		}
		return Reply{Text: textCityLength, Rows: [][]Button{backRow()}}, nil
	}

	rep, err := o.weather.Fetch(ctx, city)
	switch {
	case errors.Is(err, weather.ErrNotFound):
		if _, ferr := o.machine.Fire(ev.UserID, TriggerLookupFailed); ferr != nil {
			return Reply{}, ferr
		}
		return Reply{Text: notFoundText(city), Rows: [][]Button{backRow()}}, nil
	case errors.Is(err, weather.ErrUnavailable):
		if _, ferr := o.machine.Fire(ev.UserID, TriggerLookupFailed); ferr != nil {
			return Reply{}, ferr
		}
		return Reply{Text: textUnavailable, Rows: [][]Button{backRow()}}, nil
	case err != nil:
		return Reply{}, fmt.Errorf("fetch %q: %w", city, err)
	}

	rep.IsFavorite, err = o.favs.IsFavorite(ctx, ev.UserID, city)
	if err != nil {
		return Reply{}, err
	}
	if _, err := o.machine.Fire(ev.UserID, TriggerLookupFound); err != nil {
		return Reply{}, err
	}
	o.machine.SetCurrentCity(ev.UserID, city)

	return Reply{
		Text: renderReport(city, rep),
		Rows: [][]Button{favoriteToggleRow(rep.IsFavorite), backRow()},
	}, nil
}

// toggleFavorite handles the add/remove buttons shown after a lookup.
func (o *Orchestrator) toggleFavorite(ctx context.Context, ev Event, t Trigger) (Reply, error) {
	city, ok := o.machine.CurrentCity(ev.UserID)
	if _, err := Next(o.machine.State(ev.UserID), t); err != nil || !ok {
		return stale(), nil
	}

	var text, notice string
	name := format.MD(city)
	if t == TriggerAddFavorite {
		added, err := o.favs.Add(ctx, ev.UserID, city)
		if err != nil {
			return Reply{}, err
		}
		if added {
			text, notice = fmt.Sprintf("⭐ *%s* was added to your favorites.", name), "Added to favorites"
		} else {
			text, notice = fmt.Sprintf("*%s* is already in your favorites.", name), "Already in favorites"
		}
	} else {
		removed, err := o.favs.Remove(ctx, ev.UserID, city)
		if err != nil {
			return Reply{}, err
		}
		if removed {
			text, notice = fmt.Sprintf("*%s* was removed from your favorites.", name), "Removed from favorites"
		} else {
			text, notice = fmt.Sprintf("*%s* is not in your favorites.", name), "Not in favorites"
		}
	}

	if _, err := o.machine.Fire(ev.UserID, t); err != nil {
		return Reply{}, err
	}
	return Reply{Text: text, Rows: mainMenu(), Notice: notice}, nil
}

func (o *Orchestrator) listView(ctx context.Context, ev Event, notice string) (Reply, error) {
	entries, err := o.favs.Entries(ctx, ev.UserID)
	if err != nil {
		return Reply{}, err
	}
	if len(entries) == 0 {
		return Reply{
			Text:   textNoFavorites,
			Rows:   [][]Button{{{Label: labelGetWeather, Action: ActionGetWeather}}, backRow()},
			Edit:   ev.FromCallback,
			Notice: notice,
		}, nil
	}
	return Reply{
		Text:   textFavoritesHead,
		Rows:   favoriteRows(entries),
		Edit:   ev.FromCallback,
		Notice: notice,
	}, nil
}

// favoriteFromPayload resolves a button payload to one of the user's bookmarks.
func (o *Orchestrator) favoriteFromPayload(ctx context.Context, ev Event) (favorites.Favorite, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ev.Payload), 10, 64)
	if err != nil || id <= 0 {
		return favorites.Favorite{}, favorites.ErrNotFound
	}
	return o.favs.Get(ctx, ev.UserID, id)
}

// showFavorite refreshes the weather for a bookmarked city.
func (o *Orchestrator) showFavorite(ctx context.Context, ev Event) (Reply, error) {
	fav, err := o.favoriteFromPayload(ctx, ev)
	if errors.Is(err, favorites.ErrNotFound) {
		return o.listView(ctx, ev, textFavoriteGone)
	}
	if err != nil {
		return Reply{}, err
	}

	toList := []Button{{Label: labelBackToList, Action: ActionFavorites}}
	title := displayCity(fav.CityName)
	rep, err := o.weather.Fetch(ctx, fav.CityName)
	switch {
	case errors.Is(err, weather.ErrNotFound):
		return Reply{
			Text: notFoundText(title),
			Rows: [][]Button{{{Label: labelRemoveFavorite, Action: ActionFavDelete, Payload: ev.Payload}}, toList},
			Edit: ev.FromCallback,
		}, nil
	case errors.Is(err, weather.ErrUnavailable):
		return Reply{Text: textUnavailable, Rows: [][]Button{toList}, Edit: ev.FromCallback}, nil
	case err != nil:
		return Reply{}, fmt.Errorf("fetch %q: %w", fav.CityName, err)
	}

	rep.IsFavorite = true
	return Reply{
		Text: renderReport(title, rep),
		Rows: [][]Button{
			{{Label: labelRemoveFavorite, Action: ActionFavDelete, Payload: strconv.FormatInt(fav.ID, 10)}},
			toList,
		},
		Edit: ev.FromCallback,
	}, nil
}

// deleteFavorite removes a bookmark from the list or refresh view and re-renders the list.
func (o *Orchestrator) deleteFavorite(ctx context.Context, ev Event) (Reply, error) {
	fav, err := o.favoriteFromPayload(ctx, ev)
	if errors.Is(err, favorites.ErrNotFound) {
		return o.listView(ctx, ev, textFavoriteGone)
	}
	if err != nil {
		return Reply{}, err
	}
	if _, err := o.favs.Remove(ctx, ev.UserID, fav.CityName); err != nil {
		return Reply{}, err
	}
	return o.listView(ctx, ev, "Removed "+displayCity(fav.CityName))
}

func (o *Orchestrator) stats(ctx context.Context, ev Event) (Reply, error) {
	if o.adminID == 0 || ev.UserID != o.adminID {
		return Reply{Text: textHelp, Rows: mainMenu()}, nil
	}
	total, err := o.favs.Count(ctx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("📊 *Stats*\nActive sessions: %d\nStored favorites: %d", o.sessions.Len(), total)}, nil
}

func stale() Reply {
	return Reply{Text: textStale + " " + textMenu, Rows: mainMenu(), Notice: textStale}
}

func apology() Reply {
	return Reply{Text: textApology, Rows: mainMenu(), Notice: textApology}
}
