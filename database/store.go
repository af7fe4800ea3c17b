package database

import (
	"context"
	"errors"
	"fmt"

	"photoshare/config"
	"photoshare/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a uniqueness violation: duplicate email or an
	// already present (user, photo) like.
	ErrConflict = errors.New("record already exists")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	GetPhoto(ctx context.Context, id string) (*models.Photo, error)
	// ListPhotos returns stored photos, newest first.
	ListPhotos(ctx context.Context) ([]models.Photo, error)
	UpdateTitle(ctx context.Context, id, title string) error
	// SetVariants replaces all three renditions in one write and marks the
	// photo stored. A non-nil title is written in the same update.
	SetVariants(ctx context.Context, id string, variants models.Variants, title *string) error
	// DeletePhoto removes the photo together with its likes.
	DeletePhoto(ctx context.Context, id string) error
}

type LikeStore interface {
	LikedBy(ctx context.Context, photoID, userID string) (bool, error)
	// AddLike returns ErrConflict when the pair already exists.
	AddLike(ctx context.Context, photoID, userID string) error
	// RemoveLike succeeds when the pair is already absent.
	RemoveLike(ctx context.Context, photoID, userID string) error
	CountLikes(ctx context.Context, photoID string) (int64, error)
}

type Store interface {
	UserStore
	PhotoStore
	LikeStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects the backend selected by cfg.DBDriver and prepares its schema.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case "mongo":
		return ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres":
		return ConnectPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}
}
