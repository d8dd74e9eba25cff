package domain

import "time"

// Movie represents the canonical movie entity in the database/service.
// Descriptive fields are copied verbatim from the details provider; Year,
// Metascore and ImdbRating are nil when the provider reported "N/A".
type Movie struct {
	ID         int64
	Title      string
	Year       *int
	Rated      string
	Released   string
	Runtime    string
	Genre      string
	Director   string
	Writer     string
	Actors     string
	Plot       string
	Language   string
	Country    string
	Awards     string
	Poster     string
	Metascore  *int
	ImdbRating *float64
	ImdbVotes  string
	ImdbID     string
	Type       string
	DVD        string
	BoxOffice  string
	Production string
	Website    string
	Ratings    []Rating
	CreatedAt  time.Time
}
