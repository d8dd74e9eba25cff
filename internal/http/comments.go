package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-comments-api/internal/domain"
	"github.com/Clark-Hu/movie-comments-api/internal/repository"
)

// dateLayout is the wire format for comment dates and ranking ranges.
const dateLayout = "02 Jan 2006"

const (
	msgMovieNotFound = "movie with given id not found"
	msgNoMovieID     = "no movie id provided"
	msgNoText        = "no comment text provided"
)

type commentCreateRequest struct {
	ID   json.RawMessage `json:"id"`
	Text *string         `json:"text"`
}

type commentResponse struct {
	MovieID     int64  `json:"MovieId"`
	Text        string `json:"Text"`
	CreatedDate string `json:"CreatedDate"`
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("id") {
		all, err := s.repo.Comments.All(r.Context())
		if err != nil {
			s.respondInternal(w, "Failed to list comments", err)
			return
		}
		s.respondJSON(w, http.StatusOK, toCommentResponses(all))
		return
	}

	movieID, ok := parseMovieID(query.Get("id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, codeNotFound, msgMovieNotFound)
		return
	}
	if _, err := s.repo.Movies.GetByID(r.Context(), movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, codeNotFound, msgMovieNotFound)
			return
		}
		s.respondInternal(w, "Failed to list comments", err)
		return
	}

	comments, err := s.repo.Comments.ForMovie(r.Context(), movieID)
	if err != nil {
		s.respondInternal(w, "Failed to list comments", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCommentResponses(comments))
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err, msgNoMovieID)
		return
	}

	idText, ok := movieIDText(req.ID)
	if !ok {
		s.respondError(w, http.StatusBadRequest, codeValidation, msgNoMovieID)
		return
	}
	if req.Text == nil || strings.TrimSpace(*req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, codeValidation, msgNoText)
		return
	}
	movieID, ok := parseMovieID(idText)
	if !ok {
		s.respondError(w, http.StatusNotFound, codeNotFound, msgMovieNotFound)
		return
	}

	comment, err := s.repo.Comments.Create(r.Context(), movieID, *req.Text, nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, codeNotFound, msgMovieNotFound)
			return
		}
		s.respondInternal(w, "Failed to create comment", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// movieIDText extracts the movie id from a JSON integer or string. Absent,
// null and any other JSON type report false.
func movieIDText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", false
		}
		return text, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		if _, err := n.Int64(); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

// parseMovieID accepts a positive integer id, optionally sent as a string.
func parseMovieID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func toCommentResponse(c domain.Comment) commentResponse {
	return commentResponse{
		MovieID:     c.MovieID,
		Text:        c.Text,
		CreatedDate: c.CreatedDate.Format(dateLayout),
	}
}

func toCommentResponses(comments []domain.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}
