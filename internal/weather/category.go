package weather

// Category groups provider condition codes for display.
type Category int

const (
	CategoryDefault Category = iota
	CategoryStorm
	CategoryRain
	CategorySnow
	CategoryClear
	CategoryCloudy
)

// CategoryOf maps a provider condition code to its display category.
func CategoryOf(code int) Category {
	switch {
	case code >= 200 && code < 300:
		return CategoryStorm
	case code >= 300 && code < 600:
		return CategoryRain
	case code >= 600 && code < 700:
		return CategorySnow
	case code == 800:
		return CategoryClear
	case code > 800 && code < 900:
		return CategoryCloudy
	}
	return CategoryDefault
}

var categoryNames = [...]string{"default", "storm", "rain", "snow", "clear", "cloudy"}

var categoryEmoji = [...]string{"🌡", "⛈", "🌧", "❄️", "☀️", "☁️"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[CategoryDefault]
	}
	return categoryNames[c]
}

// Emoji returns the icon shown next to the city name.
func (c Category) Emoji() string {
	if c < 0 || int(c) >= len(categoryEmoji) {
		return categoryEmoji[CategoryDefault]
	}
	return categoryEmoji[c]
}
