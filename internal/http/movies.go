package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-comments-api/internal/details"
	"github.com/Clark-Hu/movie-comments-api/internal/domain"
	"github.com/Clark-Hu/movie-comments-api/internal/movies"
	"github.com/Clark-Hu/movie-comments-api/internal/repository"
)

const (
	msgNoTitle   = "no movie title provided"
	notAvailable = "N/A"
)

type movieCreateRequest struct {
	Title *string `json:"title"`
}

// movieResponse mirrors the provider's field names so clients see the same
// shape OMDb returns, plus the stored Id.
type movieResponse struct {
	ID         int64            `json:"Id"`
	Title      string           `json:"Title"`
	Year       string           `json:"Year"`
	Rated      string           `json:"Rated"`
	Released   string           `json:"Released"`
	Runtime    string           `json:"Runtime"`
	Genre      string           `json:"Genre"`
	Director   string           `json:"Director"`
	Writer     string           `json:"Writer"`
	Actors     string           `json:"Actors"`
	Plot       string           `json:"Plot"`
	Language   string           `json:"Language"`
	Country    string           `json:"Country"`
	Awards     string           `json:"Awards"`
	Poster     string           `json:"Poster"`
	Ratings    []ratingResponse `json:"Ratings"`
	Metascore  string           `json:"Metascore"`
	ImdbRating string           `json:"imdbRating"`
	ImdbVotes  string           `json:"imdbVotes"`
	ImdbID     string           `json:"imdbID"`
	Type       string           `json:"Type"`
	DVD        string           `json:"DVD"`
	BoxOffice  string           `json:"BoxOffice"`
	Production string           `json:"Production"`
	Website    string           `json:"Website"`
}

type ratingResponse struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	sort, err := repository.ParseMovieSort(r.URL.Query().Get("sort"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeValidation, "unsupported sort field")
		return
	}

	list, err := s.repo.Movies.List(r.Context(), sort)
	if err != nil {
		s.respondInternal(w, "Failed to list movies", err)
		return
	}

	items := make([]movieResponse, 0, len(list))
	for _, movie := range list {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err, msgNoTitle)
		return
	}
	if req.Title == nil {
		s.respondError(w, http.StatusBadRequest, codeValidation, msgNoTitle)
		return
	}

	movie, outcome, err := s.resolver.Resolve(r.Context(), *req.Title, s.provider)
	if err != nil {
		var unavailable *details.UnavailableError
		switch {
		case errors.Is(err, movies.ErrEmptyTitle):
			s.respondError(w, http.StatusBadRequest, codeValidation, msgNoTitle)
		case errors.As(err, &unavailable):
			s.logger.Warn("details provider unavailable", zap.String("title", *req.Title), zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, codeUnavailable, unavailable.Reason)
		default:
			s.respondInternal(w, "Failed to create movie", err)
		}
		return
	}

	status := http.StatusOK
	if outcome == movies.OutcomeCreated {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, toMovieResponse(movie))
}

func toMovieResponse(movie domain.Movie) movieResponse {
	resp := movieResponse{
		ID:         movie.ID,
		Title:      movie.Title,
		Year:       formatInt(movie.Year),
		Rated:      movie.Rated,
		Released:   movie.Released,
		Runtime:    movie.Runtime,
		Genre:      movie.Genre,
		Director:   movie.Director,
		Writer:     movie.Writer,
		Actors:     movie.Actors,
		Plot:       movie.Plot,
		Language:   movie.Language,
		Country:    movie.Country,
		Awards:     movie.Awards,
		Poster:     movie.Poster,
		Ratings:    make([]ratingResponse, 0, len(movie.Ratings)),
		Metascore:  formatInt(movie.Metascore),
		ImdbRating: notAvailable,
		ImdbVotes:  movie.ImdbVotes,
		ImdbID:     movie.ImdbID,
		Type:       movie.Type,
		DVD:        movie.DVD,
		BoxOffice:  movie.BoxOffice,
		Production: movie.Production,
		Website:    movie.Website,
	}
	if movie.ImdbRating != nil {
		resp.ImdbRating = strconv.FormatFloat(*movie.ImdbRating, 'f', 1, 64)
	}
	for _, rating := range movie.Ratings {
		resp.Ratings = append(resp.Ratings, ratingResponse{Source: rating.Source, Value: rating.Value})
	}
	return resp
}

func formatInt(v *int) string {
	if v == nil {
		return notAvailable
	}
	return strconv.Itoa(*v)
}
