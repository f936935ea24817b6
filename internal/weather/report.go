package weather

// Report is a normalized current weather snapshot.
type Report struct {
	City        string
	Temperature float64
	FeelsLike   float64
	Description string
	Humidity    int
	WindSpeed   float64
	ConditionID int
	// IsFavorite is filled by the caller, the provider knows nothing about users.
	IsFavorite bool
}

// Category returns the display category of the report's condition code.
func (r Report) Category() Category {
	return CategoryOf(r.ConditionID)
}
