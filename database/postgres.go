package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoshare/models"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const photoColumns = `id, user_id, title, status,
	original_key, original_size, original_content_type, original_width, original_height,
	medium_key, medium_size, medium_content_type, medium_width, medium_height,
	thumb_key, thumb_size, thumb_content_type, thumb_width, thumb_height,
	created_at, updated_at`

type PostgresStore struct {
	Pool *pgxpool.Pool
}

// ConnectPostgres initializes the PostgreSQL connection pool and applies schema.sql.
func ConnectPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to apply schema: %w", err)
	}

	log.Println("Connected to PostgreSQL")
	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.Pool.Close()
	return nil
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// likeError maps a failed like insert. The photo may be deleted between the
// existence check and the insert, which trips the likes.photo_id foreign key.
func likeError(err error) error {
	if hasCode(err, foreignKeyViolation) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, email, password, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.FirstName, user.LastName, user.Email, user.Password, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `WHERE email = $1`, email)
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.Pool.Exec(ctx,
		`UPDATE users SET password = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.Pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, password, role, created_at, updated_at
		 FROM users `+where, arg,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) error {
	v := p.Variants
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO photos (`+photoColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		p.ID, p.UserID, p.Title, p.Status,
		v.Original.Key, v.Original.Size, v.Original.ContentType, v.Original.Width, v.Original.Height,
		v.Medium.Key, v.Medium.Size, v.Medium.ContentType, v.Medium.Width, v.Medium.Height,
		v.Thumb.Key, v.Thumb.Size, v.Thumb.ContentType, v.Thumb.Width, v.Thumb.Height,
		p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var p models.Photo
	v := &p.Variants
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Status,
		&v.Original.Key, &v.Original.Size, &v.Original.ContentType, &v.Original.Width, &v.Original.Height,
		&v.Medium.Key, &v.Medium.Size, &v.Medium.ContentType, &v.Medium.Width, &v.Medium.Height,
		&v.Thumb.Key, &v.Thumb.Size, &v.Thumb.ContentType, &v.Thumb.Width, &v.Thumb.Height,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	p, err := scanPhoto(s.Pool.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE status = $1 ORDER BY created_at DESC`,
		models.PhotoStored,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (s *PostgresStore) UpdateTitle(ctx context.Context, id, title string) error {
	res, err := s.Pool.Exec(ctx,
		`UPDATE photos SET title = $2, updated_at = now() WHERE id = $1`, id, title)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetVariants(ctx context.Context, id string, v models.Variants, title *string) error {
	res, err := s.Pool.Exec(ctx,
		`UPDATE photos SET status = $2, title = COALESCE($18::text, title),
			original_key = $3, original_size = $4, original_content_type = $5, original_width = $6, original_height = $7,
			medium_key = $8, medium_size = $9, medium_content_type = $10, medium_width = $11, medium_height = $12,
			thumb_key = $13, thumb_size = $14, thumb_content_type = $15, thumb_width = $16, thumb_height = $17,
			updated_at = now()
		 WHERE id = $1`,
		id, models.PhotoStored,
		v.Original.Key, v.Original.Size, v.Original.ContentType, v.Original.Width, v.Original.Height,
		v.Medium.Key, v.Medium.Size, v.Medium.ContentType, v.Medium.Width, v.Medium.Height,
		v.Thumb.Key, v.Thumb.Size, v.Thumb.ContentType, v.Thumb.Width, v.Thumb.Height,
		title,
	)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeletePhoto(ctx context.Context, id string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE photo_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) LikedBy(ctx context.Context, photoID, userID string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND photo_id = $2)`,
		userID, photoID,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) AddLike(ctx context.Context, photoID, userID string) error {
	res, err := s.Pool.Exec(ctx,
		`INSERT INTO likes (user_id, photo_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, photoID,
	)
	if err != nil {
		return likeError(err)
	}
	if res.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) RemoveLike(ctx context.Context, photoID, userID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND photo_id = $2`, userID, photoID)
	return err
}

func (s *PostgresStore) CountLikes(ctx context.Context, photoID string) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM likes WHERE photo_id = $1`, photoID).Scan(&n)
	return n, err
}
