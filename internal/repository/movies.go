package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-comments-api/internal/domain"
	"github.com/Clark-Hu/movie-comments-api/internal/store"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id,
    title,
    year,
    rated,
    released,
    runtime,
    genre,
    director,
    writer,
    actors,
    plot,
    language,
    country,
    awards,
    poster,
    metascore,
    imdb_rating,
    imdb_votes,
    imdb_id,
    type,
    dvd,
    box_office,
    production,
    website,
    created_at
`

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
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
}

// RatingParams is a single third-party rating stored alongside a new movie.
type RatingParams struct {
	Source string
	Value  string
}

// MovieSort selects the ordering used by List.
type MovieSort string

const (
	SortByID    MovieSort = ""
	SortByTitle MovieSort = "Title"
	SortByYear  MovieSort = "Year"
)

// ParseMovieSort maps a query value onto a MovieSort, case-insensitively.
func ParseMovieSort(raw string) (MovieSort, error) {
	switch {
	case raw == "":
		return SortByID, nil
	case strings.EqualFold(raw, string(SortByTitle)):
		return SortByTitle, nil
	case strings.EqualFold(raw, string(SortByYear)):
		return SortByYear, nil
	default:
		return SortByID, fmt.Errorf("unsupported sort field %q", raw)
	}
}

func (s MovieSort) orderBy() string {
	switch s {
	case SortByTitle:
		return "lower(title) ASC, id ASC"
	case SortByYear:
		return "year ASC NULLS LAST, id ASC"
	default:
		return "id ASC"
	}
}

// Create inserts a movie together with its ratings in one transaction. A
// case-insensitive title clash returns ErrConflict and nothing is persisted.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams, ratings []RatingParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (
            title, year, rated, released, runtime, genre, director, writer, actors, plot,
            language, country, awards, poster, metascore, imdb_rating, imdb_votes, imdb_id,
            type, dvd, box_office, production, website
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
        RETURNING %s
    `, movieColumns)

	var movie domain.Movie
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query,
			params.Title, params.Year, params.Rated, params.Released, params.Runtime,
			params.Genre, params.Director, params.Writer, params.Actors, params.Plot,
			params.Language, params.Country, params.Awards, params.Poster, params.Metascore,
			params.ImdbRating, params.ImdbVotes, params.ImdbID, params.Type, params.DVD,
			params.BoxOffice, params.Production, params.Website,
		)
		created, err := scanMovie(row)
		if err != nil {
			return err
		}

		created.Ratings = make([]domain.Rating, 0, len(ratings))
		for _, rp := range ratings {
			var rating domain.Rating
			err := tx.QueryRow(ctx, `
                INSERT INTO ratings (movie_id, source, value)
                VALUES ($1,$2,$3)
                RETURNING id, movie_id, source, value
            `, created.ID, rp.Source, rp.Value).Scan(&rating.ID, &rating.MovieID, &rating.Source, &rating.Value)
			if err != nil {
				return fmt.Errorf("insert rating %q: %w", rp.Source, err)
			}
			created.Ratings = append(created.Ratings, rating)
		}

		movie = created
		return nil
	})
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.Movie{}, ErrConflict
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// FindByTitleFold fetches the movie whose title matches case-insensitively.
func (r *MoviesRepository) FindByTitleFold(ctx context.Context, title string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE lower(title) = lower($1) ORDER BY id LIMIT 1`, movieColumns)
	return r.getOne(ctx, query, title)
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	return r.getOne(ctx, query, id)
}

func (r *MoviesRepository) getOne(ctx context.Context, query string, arg interface{}) (domain.Movie, error) {
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	movies := []domain.Movie{movie}
	if err := r.attachRatings(ctx, movies); err != nil {
		return domain.Movie{}, err
	}
	return movies[0], nil
}

// List returns every movie with its ratings in the requested order.
func (r *MoviesRepository) List(ctx context.Context, sort MovieSort) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY %s`, movieColumns, sort.orderBy())
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachRatings(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// All returns every movie ordered by id.
func (r *MoviesRepository) All(ctx context.Context) ([]domain.Movie, error) {
	return r.List(ctx, SortByID)
}

// IDs returns the identifiers of every stored movie in ascending order.
func (r *MoviesRepository) IDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM movies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes a movie; its ratings and comments go with it.
func (r *MoviesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MoviesRepository) attachRatings(ctx context.Context, movies []domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	ids := make([]int64, len(movies))
	index := make(map[int64]int, len(movies))
	for i := range movies {
		ids[i] = movies[i].ID
		index[movies[i].ID] = i
		movies[i].Ratings = make([]domain.Rating, 0)
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, movie_id, source, value
        FROM ratings
        WHERE movie_id = ANY($1)
        ORDER BY id
    `, ids)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(&rating.ID, &rating.MovieID, &rating.Source, &rating.Value); err != nil {
			return fmt.Errorf("scan rating: %w", err)
		}
		i := index[rating.MovieID]
		movies[i].Ratings = append(movies[i].Ratings, rating)
	}
	return rows.Err()
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var (
		movie     domain.Movie
		createdAt time.Time
	)

	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.Rated,
		&movie.Released,
		&movie.Runtime,
		&movie.Genre,
		&movie.Director,
		&movie.Writer,
		&movie.Actors,
		&movie.Plot,
		&movie.Language,
		&movie.Country,
		&movie.Awards,
		&movie.Poster,
		&movie.Metascore,
		&movie.ImdbRating,
		&movie.ImdbVotes,
		&movie.ImdbID,
		&movie.Type,
		&movie.DVD,
		&movie.BoxOffice,
		&movie.Production,
		&movie.Website,
		&createdAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.CreatedAt = createdAt.UTC()
	return movie, nil
}
