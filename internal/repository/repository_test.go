package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/movie-comments-api/internal/domain"
	"github.com/Clark-Hu/movie-comments-api/internal/testdb"
)

type testEnv struct {
	ctx        context.Context
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	pool := testdb.New(t, "movies_test")
	return &testEnv{ctx: context.Background(), repository: NewWithPool(pool)}
}

func intPtr(v int) *int { return &v }

func mustCreateMovie(t testing.TB, env *testEnv, title string, year int) domain.Movie {
	t.Helper()
	rating := 7.4
	movie, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{
		Title:      title,
		Year:       intPtr(year),
		Genre:      "Horror",
		Metascore:  intPtr(69),
		ImdbRating: &rating,
		ImdbVotes:  "376032",
	}, []RatingParams{
		{Source: "Internet Movie Database", Value: "7.4/10"},
		{Source: "Rotten Tomatoes", Value: "86%"},
	})
	require.NoError(t, err, "create movie %q", title)
	return movie
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMoviesRepository_CreateFindList(t *testing.T) {
	env := newTestEnv(t)

	it := mustCreateMovie(t, env, "It", 2017)
	assert.NotZero(t, it.ID)
	require.Len(t, it.Ratings, 2)
	require.NotNil(t, it.ImdbRating)
	assert.InDelta(t, 7.4, *it.ImdbRating, 1e-9)

	alien := mustCreateMovie(t, env, "Alien", 1979)

	found, err := env.repository.Movies.FindByTitleFold(env.ctx, "iT")
	require.NoError(t, err)
	assert.Equal(t, it.ID, found.ID)
	assert.Len(t, found.Ratings, 2)

	_, err = env.repository.Movies.FindByTitleFold(env.ctx, "It Follows")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.repository.Movies.GetByID(env.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := env.repository.Movies.All(env.ctx)
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, []int64{it.ID, alien.ID}, []int64{byID[0].ID, byID[1].ID})

	byTitle, err := env.repository.Movies.List(env.ctx, SortByTitle)
	require.NoError(t, err)
	assert.Equal(t, "Alien", byTitle[0].Title)

	byYear, err := env.repository.Movies.List(env.ctx, SortByYear)
	require.NoError(t, err)
	assert.Equal(t, 1979, *byYear[0].Year)

	ids, err := env.repository.Movies.IDs(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{it.ID, alien.ID}, ids)
}

func TestMoviesRepository_CreateConflictIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	mustCreateMovie(t, env, "It", 2017)

	_, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{Title: "IT"}, []RatingParams{
		{Source: "Metacritic", Value: "69/100"},
	})
	assert.ErrorIs(t, err, ErrConflict)

	movies, err := env.repository.Movies.All(env.ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Len(t, movies[0].Ratings, 2, "conflicting insert must not leave ratings behind")
}

func TestMoviesRepository_RatingFailureRollsBackMovie(t *testing.T) {
	env := newTestEnv(t)

	// PostgreSQL text cannot hold NUL bytes, so the second rating insert fails.
	_, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{Title: "Partial"}, []RatingParams{
		{Source: "Metacritic", Value: "69/100"},
		{Source: "Broken", Value: "7\x00/10"},
	})
	require.Error(t, err)

	_, err = env.repository.Movies.FindByTitleFold(env.ctx, "Partial")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoviesRepository_CreateKeepsLongProviderText(t *testing.T) {
	env := newTestEnv(t)

	director := strings.Repeat("Director Name, ", 67)[:1000]
	language := strings.Repeat("Esperanto, ", 91)[:1000]
	longValue := strings.Repeat("9", 200) + "/10"
	movie, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{
		Title:      "Paris, je t'aime",
		Director:   director,
		Language:   language,
		Genre:      strings.Repeat("Drama, ", 40),
		Country:    strings.Repeat("France, ", 40),
		Production: strings.Repeat("Studio, ", 40),
		Awards:     strings.Repeat("1 win, ", 60),
		Rated:      strings.Repeat("R", 60),
	}, []RatingParams{{Source: strings.Repeat("Source ", 40), Value: longValue}})
	require.NoError(t, err)

	found, err := env.repository.Movies.GetByID(env.ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, director, found.Director)
	assert.Equal(t, language, found.Language)
	require.Len(t, found.Ratings, 1)
	assert.Equal(t, longValue, found.Ratings[0].Value)
}

func TestMoviesRepository_ConcurrentCreateKeepsOneTitle(t *testing.T) {
	env := newTestEnv(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{Title: "Race"}, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
}

func TestMoviesRepository_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "It", 2017)
	_, err := env.repository.Comments.Create(env.ctx, movie.ID, "scary", nil)
	require.NoError(t, err)

	require.NoError(t, env.repository.Movies.Delete(env.ctx, movie.ID))
	assert.ErrorIs(t, env.repository.Movies.Delete(env.ctx, movie.ID), ErrNotFound)

	comments, err := env.repository.Comments.All(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentsRepository_RangeQueries(t *testing.T) {
	env := newTestEnv(t)
	it := mustCreateMovie(t, env, "It", 2017)
	alien := mustCreateMovie(t, env, "Alien", 1979)

	dates := []time.Time{day(2019, 8, 5), day(2019, 8, 15), day(2019, 8, 20), day(2019, 9, 1), day(2019, 9, 5)}
	for i, d := range dates {
		movieID := it.ID
		if i%2 == 1 {
			movieID = alien.ID
		}
		backdated := d.Add(15 * time.Hour)
		c, err := env.repository.Comments.Create(env.ctx, movieID, "test comment", &backdated)
		require.NoError(t, err)
		assert.Equal(t, d, c.CreatedDate)
	}

	inRange, err := env.repository.Comments.InRange(env.ctx, dates[1], dates[3])
	require.NoError(t, err)
	assert.Len(t, inRange, 3)

	n, err := env.repository.Comments.CountForMovieInRange(env.ctx, it.ID, dates[0], dates[4])
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = env.repository.Comments.CountForMovieInRange(env.ctx, it.ID, dates[4], dates[0])
	require.NoError(t, err)
	assert.Zero(t, n)

	forAlien, err := env.repository.Comments.ForMovieInRange(env.ctx, alien.ID, dates[0], dates[2])
	require.NoError(t, err)
	require.Len(t, forAlien, 1)
	assert.Equal(t, dates[1], forAlien[0].CreatedDate)

	all, err := env.repository.Comments.ForMovie(env.ctx, alien.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCommentsRepository_CreateDefaultsAndUnknownMovie(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "It", 2017)

	c, err := env.repository.Comments.Create(env.ctx, movie.ID, "today", nil)
	require.NoError(t, err)
	assert.WithinDuration(t, DateOf(time.Now().UTC()), c.CreatedDate, 24*time.Hour)

	_, err = env.repository.Comments.Create(env.ctx, 424242, "orphan", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func BenchmarkMoviesRepositoryCreate(b *testing.B) {
	env := newTestEnv(b)

	for i := 0; i < b.N; i++ {
		_, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{
			Title: fmt.Sprintf("Bench Movie %d", i),
		}, []RatingParams{{Source: "Metacritic", Value: "50/100"}})
		if err != nil {
			b.Fatalf("create movie: %v", err)
		}
	}
}

func BenchmarkCommentsCountForMovieInRange(b *testing.B) {
	env := newTestEnv(b)
	movie := mustCreateMovie(b, env, "Bench Movie", 2020)
	for i := 0; i < 100; i++ {
		d := day(2020, 1, 1).AddDate(0, 0, i)
		if _, err := env.repository.Comments.Create(env.ctx, movie.ID, "bench", &d); err != nil {
			b.Fatalf("create comment: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.repository.Comments.CountForMovieInRange(env.ctx, movie.ID, day(2020, 1, 1), day(2020, 2, 1)); err != nil {
			b.Fatalf("count: %v", err)
		}
	}
}
