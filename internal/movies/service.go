// Package movies resolves requested titles to stored movies, creating them
// from provider details on first request.
package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-comments-api/internal/details"
	"github.com/Clark-Hu/movie-comments-api/internal/domain"
	"github.com/Clark-Hu/movie-comments-api/internal/repository"
)

var (
	// ErrEmptyTitle is returned for a blank title.
	ErrEmptyTitle = errors.New("movies: empty title")
	// ErrNoProvider is returned when Resolve is called without a details provider.
	ErrNoProvider = errors.New("movies: no details provider")
)

// DuplicateError reports that the provider files the requested title under a
// different formal title that is already stored.
type DuplicateError struct {
	Requested string
	Formal    string
	Existing  domain.Movie
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("movies: %q is stored as %q (id %d)", e.Requested, e.Formal, e.Existing.ID)
}

// Outcome tells whether Resolve created a movie or found one.
type Outcome int

const (
	OutcomeExisting Outcome = iota
	OutcomeCreated
)

func (o Outcome) String() string {
	if o == OutcomeCreated {
		return "created"
	}
	return "existing"
}

// Store is the movie persistence the service needs.
type Store interface {
	FindByTitleFold(ctx context.Context, title string) (domain.Movie, error)
	Create(ctx context.Context, params repository.MovieCreateParams, ratings []repository.RatingParams) (domain.Movie, error)
}

// Observer is notified of every resolution outcome.
type Observer interface {
	ObserveResolution(outcome string)
}

// Service resolves titles to movies.
type Service struct {
	store    Store
	logger   *zap.Logger
	observer Observer
}

// NewService builds a Service. observer may be nil.
func NewService(store Store, logger *zap.Logger, observer Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger.Named("movies"), observer: observer}
}

// Resolve returns the movie stored for title, creating it from provider
// details when absent. When the provider files title under a formal title
// that is already stored, resolution is retried once with the formal title.
func (s *Service) Resolve(ctx context.Context, title string, provider details.Provider) (domain.Movie, Outcome, error) {
	if provider != nil {
		provider = details.Memoize(provider)
	}
	movie, outcome, err := s.ResolveOnce(ctx, title, provider)

	var dup *DuplicateError
	if errors.As(err, &dup) {
		s.observe("duplicate")
		s.logger.Debug("retrying under formal title",
			zap.String("requested", dup.Requested),
			zap.String("formal", dup.Formal))
		movie, outcome, err = s.ResolveOnce(ctx, dup.Formal, provider)
	}
	if err != nil {
		return domain.Movie{}, OutcomeExisting, err
	}

	s.observe(outcome.String())
	return movie, outcome, nil
}

// ResolveOnce performs a single resolution attempt. It returns a
// *DuplicateError instead of retrying when the formal title is already stored.
// The provider is consulted at most once per title.
func (s *Service) ResolveOnce(ctx context.Context, title string, provider details.Provider) (domain.Movie, Outcome, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Movie{}, OutcomeExisting, ErrEmptyTitle
	}
	if provider == nil {
		return domain.Movie{}, OutcomeExisting, ErrNoProvider
	}
	provider = details.Memoize(provider)

	existing, err := s.findByTitle(ctx, title)
	if err != nil {
		return domain.Movie{}, OutcomeExisting, err
	}
	if existing != nil {
		return *existing, OutcomeExisting, nil
	}

	formal, err := provider.FormalTitle(ctx, title)
	if err != nil {
		return domain.Movie{}, OutcomeExisting, err
	}
	formal = strings.TrimSpace(formal)
	if formal != "" && !strings.EqualFold(formal, title) {
		stored, err := s.findByTitle(ctx, formal)
		if err != nil {
			return domain.Movie{}, OutcomeExisting, err
		}
		if stored != nil {
			return domain.Movie{}, OutcomeExisting, &DuplicateError{Requested: title, Formal: formal, Existing: *stored}
		}
	}

	d, err := provider.Details(ctx, title)
	if err != nil {
		return domain.Movie{}, OutcomeExisting, err
	}
	params, ratings := d.MovieParams()
	if params.Title == "" {
		params.Title = title
	}

	created, err := s.store.Create(ctx, params, ratings)
	if errors.Is(err, repository.ErrConflict) {
		// Another request stored the same title between lookup and insert.
		winner, findErr := s.findByTitle(ctx, params.Title)
		if findErr != nil {
			return domain.Movie{}, OutcomeExisting, findErr
		}
		if winner == nil {
			return domain.Movie{}, OutcomeExisting, fmt.Errorf("create movie %q: %w", params.Title, err)
		}
		return *winner, OutcomeExisting, nil
	}
	if err != nil {
		return domain.Movie{}, OutcomeExisting, fmt.Errorf("create movie %q: %w", params.Title, err)
	}

	s.logger.Info("movie created",
		zap.Int64("id", created.ID),
		zap.String("title", created.Title),
		zap.Int("ratings", len(created.Ratings)))
	return created, OutcomeCreated, nil
}

func (s *Service) findByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	movie, err := s.store.FindByTitleFold(ctx, title)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find movie %q: %w", title, err)
	}
	return &movie, nil
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveResolution(outcome)
	}
}
