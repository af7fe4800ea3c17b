package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"photoshare/models"
)

// SQLiteStore is the embedded backend: gorm over the pure Go sqlite driver.
type SQLiteStore struct {
	DB *gorm.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection keeps writes serialized.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Photo{}, &models.Like{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	log.Println("Database connection established")
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLiteStore) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	return s.DB.WithContext(ctx).Create(photo).Error
}

func (s *SQLiteStore) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	var photo models.Photo
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *SQLiteStore) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.PhotoStored).
		Order("created_at DESC").
		Find(&photos).Error
	return photos, err
}

func (s *SQLiteStore) UpdateTitle(ctx context.Context, id, title string) error {
	return s.updatePhoto(ctx, id, map[string]any{
		"title":      title,
		"updated_at": time.Now(),
	})
}

func (s *SQLiteStore) SetVariants(ctx context.Context, id string, v models.Variants, title *string) error {
	set := map[string]any{
		"status":     models.PhotoStored,
		"updated_at": time.Now(),
	}
	if title != nil {
		set["title"] = *title
	}
	for prefix, ref := range map[string]models.FileRef{
		"original_": v.Original,
		"medium_":   v.Medium,
		"thumb_":    v.Thumb,
	} {
		set[prefix+"key"] = ref.Key
		set[prefix+"size"] = ref.Size
		set[prefix+"content_type"] = ref.ContentType
		set[prefix+"width"] = ref.Width
		set[prefix+"height"] = ref.Height
	}
	return s.updatePhoto(ctx, id, set)
}

func (s *SQLiteStore) updatePhoto(ctx context.Context, id string, set map[string]any) error {
	res := s.DB.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeletePhoto(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Photo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) LikedBy(ctx context.Context, photoID, userID string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (s *SQLiteStore) AddLike(ctx context.Context, photoID, userID string) error {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, PhotoID: photoID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) RemoveLike(ctx context.Context, photoID, userID string) error {
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Delete(&models.Like{}).Error
}

func (s *SQLiteStore) CountLikes(ctx context.Context, photoID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Like{}).Where("photo_id = ?", photoID).Count(&n).Error
	return n, err
}
