// Package ranking builds the comment-count leaderboard over a date range.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Clark-Hu/movie-comments-api/internal/domain"
)

// Count is the number of in-range comments for one movie.
type Count struct {
	MovieID       int64
	TotalComments int
}

// Entry is one leaderboard row.
type Entry struct {
	MovieID       int64
	TotalComments int
	Rank          int
}

// Rank orders counts by TotalComments descending, then MovieID ascending, and
// assigns ranks starting at 1. Equal counts share a rank; the next distinct
// count gets the previous rank plus one.
func Rank(counts []Count) []Entry {
	sorted := make([]Count, len(counts))
	copy(sorted, counts)

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MovieID < sorted[j].MovieID })
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalComments > sorted[j].TotalComments })

	entries := make([]Entry, 0, len(sorted))
	rank := 1
	for i, c := range sorted {
		if i > 0 && c.TotalComments != sorted[i-1].TotalComments {
			rank++
		}
		entries = append(entries, Entry{MovieID: c.MovieID, TotalComments: c.TotalComments, Rank: rank})
	}
	return entries
}

// CommentStore is the comment persistence the engine reads.
type CommentStore interface {
	InRange(ctx context.Context, from, to time.Time) ([]domain.Comment, error)
	CountForMovieInRange(ctx context.Context, movieID int64, from, to time.Time) (int, error)
}

// MovieStore lists every stored movie id.
type MovieStore interface {
	IDs(ctx context.Context) ([]int64, error)
}

// Engine computes leaderboards from the stores.
type Engine struct {
	comments CommentStore
	movies   MovieStore
}

// NewEngine builds an Engine.
func NewEngine(comments CommentStore, movies MovieStore) *Engine {
	return &Engine{comments: comments, movies: movies}
}

// Top ranks movies by the number of comments dated within [from, to]. With
// includeAll every stored movie is ranked, including those with no comments
// in range; otherwise only movies with at least one are. An inverted range is
// not rejected and simply matches no comments.
func (e *Engine) Top(ctx context.Context, from, to time.Time, includeAll bool) ([]Entry, error) {
	candidates, err := e.candidates(ctx, from, to, includeAll)
	if err != nil {
		return nil, err
	}

	counts := make([]Count, 0, len(candidates))
	for _, id := range candidates {
		n, err := e.comments.CountForMovieInRange(ctx, id, from, to)
		if err != nil {
			return nil, fmt.Errorf("count comments for movie %d: %w", id, err)
		}
		counts = append(counts, Count{MovieID: id, TotalComments: n})
	}
	return Rank(counts), nil
}

func (e *Engine) candidates(ctx context.Context, from, to time.Time, includeAll bool) ([]int64, error) {
	if includeAll {
		ids, err := e.movies.IDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list movies: %w", err)
		}
		return ids, nil
	}

	comments, err := e.comments.InRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list comments in range: %w", err)
	}
	seen := make(map[int64]struct{}, len(comments))
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.MovieID]; ok {
			continue
		}
		seen[c.MovieID] = struct{}{}
		ids = append(ids, c.MovieID)
	}
	return ids, nil
}
