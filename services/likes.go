package services

import (
	"context"
	"errors"
	"fmt"

	"photoshare/database"
)

// LikeService flips (user, photo) membership in the likes relation.
//
// The check and the write are not serialized. Concurrent toggles rely on the
// store's uniqueness constraint: a duplicate insert comes back as
// database.ErrConflict and is treated as success, and deleting an absent pair
// is a no-op.
type LikeService struct {
	photos database.PhotoStore
	likes  database.LikeStore
}

func NewLikeService(photos database.PhotoStore, likes database.LikeStore) *LikeService {
	return &LikeService{photos: photos, likes: likes}
}

func (s *LikeService) LikedBy(ctx context.Context, photoID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.likes.LikedBy(ctx, photoID, userID)
}

// Toggle returns the membership after the call as seen by this caller.
func (s *LikeService) Toggle(ctx context.Context, photoID, userID string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}
	if _, err := s.photos.GetPhoto(ctx, photoID); err != nil {
		return false, err
	}

	liked, err := s.likes.LikedBy(ctx, photoID, userID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if err := s.likes.RemoveLike(ctx, photoID, userID); err != nil {
			return false, fmt.Errorf("remove like: %w", err)
		}
		return false, nil
	}

	err = s.likes.AddLike(ctx, photoID, userID)
	if err != nil && !errors.Is(err, database.ErrConflict) {
		return false, fmt.Errorf("add like: %w", err)
	}
	return true, nil
}

func (s *LikeService) Count(ctx context.Context, photoID string) (int64, error) {
	return s.likes.CountLikes(ctx, photoID)
}
