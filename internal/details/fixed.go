package details

import (
	"context"
	"strings"
	"sync"
)

const notFoundReason = "Movie not found!"

// Fixed is an in-memory Provider serving a preset catalogue. Lookups are
// case-insensitive and aliases resolve to the detail set of their formal title.
type Fixed struct {
	mu      sync.Mutex
	entries map[string]Details
	aliases map[string]string
	err     error
	calls   int
}

// NewFixed returns a Fixed provider serving entries keyed by their Title.
func NewFixed(entries ...Details) *Fixed {
	f := &Fixed{
		entries: make(map[string]Details, len(entries)),
		aliases: make(map[string]string),
	}
	for _, e := range entries {
		f.entries[strings.ToLower(e.Title)] = e
	}
	return f
}

// Alias makes alias resolve to the entry filed under formal.
func (f *Fixed) Alias(alias, formal string) *Fixed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliases[strings.ToLower(alias)] = strings.ToLower(formal)
	return f
}

// FailWith makes every subsequent lookup return err.
func (f *Fixed) FailWith(err error) *Fixed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Calls reports how many Details lookups were served.
func (f *Fixed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Details implements Provider.
func (f *Fixed) Details(_ context.Context, title string) (*Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, err := f.lookup(title)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FormalTitle implements Provider.
func (f *Fixed) FormalTitle(_ context.Context, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, err := f.lookup(title)
	if err != nil {
		return "", err
	}
	return d.Title, nil
}

func (f *Fixed) lookup(title string) (Details, error) {
	if f.err != nil {
		return Details{}, f.err
	}
	key := strings.ToLower(strings.TrimSpace(title))
	if formal, ok := f.aliases[key]; ok {
		key = formal
	}
	d, ok := f.entries[key]
	if !ok {
		return Details{}, &UnavailableError{Reason: notFoundReason}
	}
	d.Response = "True"
	return d, nil
}

// SampleIt is the detail set OMDb returns for "It" (2017).
func SampleIt() Details {
	return Details{
		Title:    "It",
		Year:     "2017",
		Rated:    "R",
		Released: "08 Sep 2017",
		Runtime:  "135 min",
		Genre:    "Horror",
		Director: "Andy Muschietti",
		Writer:   "Chase Palmer (screenplay by), Cary Joji Fukunaga (screenplay by), Gary Dauberman (screenplay by), Stephen King (based on the novel by)",
		Actors:   "Jaeden Martell, Jeremy Ray Taylor, Sophia Lillis, Finn Wolfhard",
		Plot:     "In the summer of 1989, a group of bullied kids band together to destroy a shape-shifting monster, which disguises itself as a clown and preys on the children of Derry, their small Maine town.",
		Language: "English",
		Country:  "USA, Canada",
		Awards:   "4 wins & 30 nominations.",
		Poster:   "https://m.media-amazon.com/images/M/MV5BZDVkZmI0YzAtNzdjYi00ZjhhLWE1ODEtMWMzMWMzNDA0NmQ4XkEyXkFqcGdeQXVyNzYzODM3Mzg@._V1_SX300.jpg",
		Ratings: []Rating{
			{Source: "Internet Movie Database", Value: "7.4/10"},
			{Source: "Rotten Tomatoes", Value: "86%"},
			{Source: "Metacritic", Value: "69/100"},
		},
		Metascore:  "69",
		ImdbRating: "7.4",
		ImdbVotes:  "376,032",
		ImdbID:     "tt1396484",
		Type:       "movie",
		DVD:        "09 Jan 2018",
		BoxOffice:  "$326,898,358",
		Production: "Warner Bros. Pictures",
		Website:    "http://itthemovie.com/",
		Response:   "True",
	}
}
