package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/movie-comments-api/internal/ranking"
)

// parseLayout accepts single-digit days as well as the zero-padded form.
const parseLayout = "2 Jan 2006"

type topEntryResponse struct {
	MovieID       int64 `json:"MovieId"`
	TotalComments int   `json:"TotalComments"`
	Rank          int   `json:"Rank"`
}

type topQuery struct {
	from       time.Time
	to         time.Time
	includeAll bool
}

type queryError string

func (e queryError) Error() string { return string(e) }

const (
	errNoDateRange     queryError = "no date range provided"
	errWrongDateFormat queryError = "wrong date format provided"
	errWrongIncludeAll queryError = "wrong include_all value provided"
)

func parseTopQuery(values url.Values) (topQuery, error) {
	if !values.Has("from") || !values.Has("to") {
		return topQuery{}, errNoDateRange
	}
	from, err := time.Parse(parseLayout, strings.TrimSpace(values.Get("from")))
	if err != nil {
		return topQuery{}, errWrongDateFormat
	}
	to, err := time.Parse(parseLayout, strings.TrimSpace(values.Get("to")))
	if err != nil {
		return topQuery{}, errWrongDateFormat
	}

	q := topQuery{from: from, to: to}
	if raw := strings.TrimSpace(values.Get("include_all")); raw != "" {
		q.includeAll, err = strconv.ParseBool(raw)
		if err != nil {
			return topQuery{}, errWrongIncludeAll
		}
	}
	return q, nil
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q, err := parseTopQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	entries, err := s.ranking.Top(r.Context(), q.from, q.to, q.includeAll)
	if err != nil {
		s.respondInternal(w, "Failed to rank movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toTopResponse(entries))
}

func toTopResponse(entries []ranking.Entry) []topEntryResponse {
	out := make([]topEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, topEntryResponse{MovieID: e.MovieID, TotalComments: e.TotalComments, Rank: e.Rank})
	}
	return out
}
