package domain

// Rating is a third-party score attached to a movie. Value is opaque
// ("7.4/10", "86%") and never parsed.
type Rating struct {
	ID      int64
	MovieID int64
	Source  string
	Value   string
}
