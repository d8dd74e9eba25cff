package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-comments-api/internal/domain"
)

// CommentsRepository provides persistence helpers for movie comments.
type CommentsRepository struct {
	pool *pgxpool.Pool
}

const commentColumns = `id, movie_id, text, created_date`

// Create stores a comment for movieID. createdDate overrides the default of
// the current date; only its calendar date is kept. An unknown movie returns
// ErrNotFound.
func (r *CommentsRepository) Create(ctx context.Context, movieID int64, text string, createdDate *time.Time) (domain.Comment, error) {
	var date *time.Time
	if createdDate != nil {
		d := DateOf(*createdDate)
		date = &d
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO comments (movie_id, text, created_date)
        VALUES ($1, $2, COALESCE($3::date, CURRENT_DATE))
        RETURNING `+commentColumns, movieID, text, date)
	comment, err := scanComment(row)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domain.Comment{}, ErrNotFound
		}
		return domain.Comment{}, err
	}
	return comment, nil
}

// All returns every comment ordered by id.
func (r *CommentsRepository) All(ctx context.Context) ([]domain.Comment, error) {
	return r.query(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY id`)
}

// ForMovie returns the comments attached to a movie.
func (r *CommentsRepository) ForMovie(ctx context.Context, movieID int64) ([]domain.Comment, error) {
	return r.query(ctx, `SELECT `+commentColumns+` FROM comments WHERE movie_id = $1 ORDER BY id`, movieID)
}

// ForMovieInRange returns a movie's comments dated within [from, to].
func (r *CommentsRepository) ForMovieInRange(ctx context.Context, movieID int64, from, to time.Time) ([]domain.Comment, error) {
	return r.query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE movie_id = $1 AND created_date BETWEEN $2::date AND $3::date
        ORDER BY id
    `, movieID, DateOf(from), DateOf(to))
}

// CountForMovieInRange counts a movie's comments dated within [from, to].
func (r *CommentsRepository) CountForMovieInRange(ctx context.Context, movieID int64, from, to time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*)::int
        FROM comments
        WHERE movie_id = $1 AND created_date BETWEEN $2::date AND $3::date
    `, movieID, DateOf(from), DateOf(to)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// InRange returns every comment dated within [from, to].
func (r *CommentsRepository) InRange(ctx context.Context, from, to time.Time) ([]domain.Comment, error) {
	return r.query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE created_date BETWEEN $1::date AND $2::date
        ORDER BY id
    `, DateOf(from), DateOf(to))
}

func (r *CommentsRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(&comment.ID, &comment.MovieID, &comment.Text, &comment.CreatedDate); err != nil {
		return domain.Comment{}, err
	}
	comment.CreatedDate = DateOf(comment.CreatedDate)
	return comment, nil
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
