package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/m3rciful/weatherbot/core/telegram/format"
	"github.com/m3rciful/weatherbot/internal/favorites"
	"github.com/m3rciful/weatherbot/internal/weather"
)

const (
	labelGetWeather     = "🌤 Weather in a city"
	labelFavorites      = "⭐ Favorites"
	labelBack           = "⬅️ Back"
	labelBackToList     = "⬅️ Back to list"
	labelAddFavorite    = "⭐ Add to favorites"
	labelRemoveFavorite = "❌ Remove from favorites"
	labelDelete         = "❌"
)

const (
	textHelp = "I show the current weather for any city.\n\n" +
		"• Tap *Weather in a city* (or send /weather) and type a city name.\n" +
		"• After a lookup you can add the city to your favorites.\n" +
		"• /favorites lists your saved cities: tap one to refresh it, ❌ to remove it."
	textMenu          = "What would you like to do?"
	textAskCity       = "Send me the name of a city."
	textCityLength    = "A city name should be between 2 and 50 characters. Try again."
	textUnavailable   = "The weather service is unavailable right now. Please try again later."
	textIdleHint      = "Tap *Weather in a city* to look up the weather, or open your favorites."
	textNoFavorites   = "You have no favorite cities yet.\nLook up a city and tap *Add to favorites* to save it."
	textFavoritesHead = "⭐ *Your favorite cities*\nTap a city to refresh its weather."
	textStale         = "This action is no longer available."
	textFavoriteGone  = "That city is no longer in your favorites."
	textApology       = "Sorry, something went wrong. Please try again."
)

var titleCaser = cases.Title(language.Und)

// displayCity title-cases a stored (lower-case) city name.
func displayCity(city string) string {
	return titleCaser.String(strings.TrimSpace(city))
}

func mainMenu() [][]Button {
	return [][]Button{
		{{Label: labelGetWeather, Action: ActionGetWeather}},
		{{Label: labelFavorites, Action: ActionFavorites}},
	}
}

func backRow() []Button {
	return []Button{{Label: labelBack, Action: ActionBack}}
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hi! " + textMenu
	}
	return fmt.Sprintf("Hi, *%s*! %s", format.MD(name), textMenu)
}

func notFoundText(city string) string {
	return fmt.Sprintf("City *%s* was not found. Try another name.", format.MD(city))
}

func renderReport(title string, r weather.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n", r.Category().Emoji(), format.MD(title))
	fmt.Fprintf(&b, "🌡 Temperature: %.1f°C (feels like %.1f°C)\n", r.Temperature, r.FeelsLike)
	fmt.Fprintf(&b, "📝 %s\n", format.MD(capitalize(r.Description)))
	fmt.Fprintf(&b, "💧 Humidity: %d%%\n", r.Humidity)
	fmt.Fprintf(&b, "💨 Wind: %.1f m/s", r.WindSpeed)
	if r.IsFavorite {
		b.WriteString("\n⭐ In your favorites")
	}
	return b.String()
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func favoriteToggleRow(isFavorite bool) []Button {
	if isFavorite {
		return []Button{{Label: labelRemoveFavorite, Action: ActionRemoveFavorite}}
	}
	return []Button{{Label: labelAddFavorite, Action: ActionAddFavorite}}
}

func favoriteRows(entries []favorites.Favorite) [][]Button {
	rows := make([][]Button, 0, len(entries)+1)
	for _, fav := range entries {
		id := strconv.FormatInt(fav.ID, 10)
		rows = append(rows, []Button{
			{Label: "🔄 " + displayCity(fav.CityName), Action: ActionFavShow, Payload: id},
			{Label: labelDelete, Action: ActionFavDelete, Payload: id},
		})
	}
	return append(rows, backRow())
}
