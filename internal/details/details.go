// Package details fetches movie metadata from an external provider and maps
// it onto the fields stored for a movie.
package details

import (
	"context"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-comments-api/internal/repository"
)

// Provider supplies movie metadata for a requested title.
type Provider interface {
	// Details returns the provider's detail set for title.
	Details(ctx context.Context, title string) (*Details, error)
	// FormalTitle returns the canonical title the provider files title under.
	FormalTitle(ctx context.Context, title string) (string, error)
}

// UnavailableError reports that the provider could not supply details. Reason
// is the provider's own explanation and is safe to show to API clients.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	return e.Reason
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Rating is one entry of the provider's Ratings array.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Details is the provider's field bag for a single title.
type Details struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	Rated      string   `json:"Rated"`
	Released   string   `json:"Released"`
	Runtime    string   `json:"Runtime"`
	Genre      string   `json:"Genre"`
	Director   string   `json:"Director"`
	Writer     string   `json:"Writer"`
	Actors     string   `json:"Actors"`
	Plot       string   `json:"Plot"`
	Language   string   `json:"Language"`
	Country    string   `json:"Country"`
	Awards     string   `json:"Awards"`
	Poster     string   `json:"Poster"`
	Ratings    []Rating `json:"Ratings"`
	Metascore  string   `json:"Metascore"`
	ImdbRating string   `json:"imdbRating"`
	ImdbVotes  string   `json:"imdbVotes"`
	ImdbID     string   `json:"imdbID"`
	Type       string   `json:"Type"`
	DVD        string   `json:"DVD"`
	BoxOffice  string   `json:"BoxOffice"`
	Production string   `json:"Production"`
	Website    string   `json:"Website"`
	Response   string   `json:"Response,omitempty"`
	Error      string   `json:"Error,omitempty"`
}

// MovieParams maps the detail set onto a new movie and its ratings. Year,
// Metascore and imdbRating are coerced to numbers; values the provider marks
// "N/A" become nil.
func (d Details) MovieParams() (repository.MovieCreateParams, []repository.RatingParams) {
	params := repository.MovieCreateParams{
		Title:      strings.TrimSpace(d.Title),
		Year:       leadingInt(d.Year),
		Rated:      d.Rated,
		Released:   d.Released,
		Runtime:    d.Runtime,
		Genre:      d.Genre,
		Director:   d.Director,
		Writer:     d.Writer,
		Actors:     d.Actors,
		Plot:       d.Plot,
		Language:   d.Language,
		Country:    d.Country,
		Awards:     d.Awards,
		Poster:     d.Poster,
		Metascore:  leadingInt(d.Metascore),
		ImdbRating: parseFloat(d.ImdbRating),
		ImdbVotes:  strings.ReplaceAll(d.ImdbVotes, ",", ""),
		ImdbID:     d.ImdbID,
		Type:       d.Type,
		DVD:        d.DVD,
		BoxOffice:  d.BoxOffice,
		Production: d.Production,
		Website:    d.Website,
	}

	ratings := make([]repository.RatingParams, 0, len(d.Ratings))
	for _, r := range d.Ratings {
		ratings = append(ratings, repository.RatingParams{Source: r.Source, Value: r.Value})
	}
	return params, ratings
}

// leadingInt parses the run of digits at the start of s, so a series year
// such as "2011–2019" yields 2011.
func leadingInt(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &v
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}
