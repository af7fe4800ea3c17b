package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"photoshare/database"
	"photoshare/models"
	"photoshare/processing"
	"photoshare/storage"
	"photoshare/utils"
)

type PhotoService struct {
	store    database.PhotoStore
	objects  storage.ObjectStore
	pipeline *processing.Pipeline
	likes    *LikeService
}

func NewPhotoService(store database.PhotoStore, objects storage.ObjectStore, pipeline *processing.Pipeline, likes *LikeService) *PhotoService {
	return &PhotoService{
		store:    store,
		objects:  objects,
		pipeline: pipeline,
		likes:    likes,
	}
}

// Create inserts a processing record, derives and stores the renditions, then
// marks the photo stored. On failure the record is removed again.
func (s *PhotoService) Create(ctx context.Context, userID, title string, src processing.Source) (*models.Photo, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if src == nil {
		return nil, fmt.Errorf("%w: image is required", ErrValidation)
	}

	now := time.Now()
	photo := &models.Photo{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Status:    models.PhotoProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePhoto(ctx, photo); err != nil {
		return nil, err
	}

	variants, err := s.attach(ctx, photo.ID, src, nil)
	if err != nil {
		if delErr := s.store.DeletePhoto(context.WithoutCancel(ctx), photo.ID); delErr != nil {
			log.Println("Error removing unprocessed photo:", delErr)
		}
		return nil, err
	}

	photo.Variants = variants
	photo.Status = models.PhotoStored
	return photo, nil
}

// Get hides photos still being processed from everyone but their owner.
func (s *PhotoService) Get(ctx context.Context, id, viewerID string) (*models.Photo, error) {
	photo, err := s.store.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.Status != models.PhotoStored && photo.UserID != viewerID {
		return nil, database.ErrNotFound
	}
	return photo, nil
}

func (s *PhotoService) List(ctx context.Context) ([]models.Photo, error) {
	return s.store.ListPhotos(ctx)
}

// Update changes the title and, when src is set, replaces all renditions.
func (s *PhotoService) Update(ctx context.Context, userID, id string, title *string, src processing.Source) (*models.Photo, error) {
	photo, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if src == nil {
		if title != nil {
			if err := s.store.UpdateTitle(ctx, id, *title); err != nil {
				return nil, err
			}
		}
	} else {
		replaced := photo.Variants.Keys()
		// The title is committed with the renditions, so a rejected image
		// leaves the photo untouched.
		if _, err := s.attach(ctx, id, src, title); err != nil {
			return nil, err
		}
		// The new set is committed; the old files are no longer referenced.
		if err := storage.DeleteAll(ctx, s.objects, replaced); err != nil {
			log.Println("Error deleting replaced renditions:", err)
		}
	}

	return s.store.GetPhoto(ctx, id)
}

// Delete removes the photo, its likes and its renditions.
func (s *PhotoService) Delete(ctx context.Context, userID, id string) error {
	photo, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePhoto(ctx, id); err != nil {
		return err
	}
	if err := storage.DeleteAll(ctx, s.objects, photo.Variants.Keys()); err != nil {
		log.Println("Error deleting photo renditions:", err)
	}
	return nil
}

func (s *PhotoService) owned(ctx context.Context, userID, id string) (*models.Photo, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	photo, err := s.store.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.AuthorizeOwner(photo.UserID, userID); err != nil {
		return nil, ErrForbidden
	}
	return photo, nil
}

// attach runs the pipeline, uploads every rendition and commits the refs, and
// title when set, in a single write. Nothing is committed unless all three
// uploads succeed.
func (s *PhotoService) attach(ctx context.Context, photoID string, src processing.Source, title *string) (models.Variants, error) {
	res, err := s.pipeline.Derive(ctx, src)
	if err != nil {
		return models.Variants{}, err
	}

	prefix := fmt.Sprintf("photos/%s/%s", photoID, uuid.NewString())
	refs := make(map[string]models.FileRef, 3)
	var uploaded []string
	for _, r := range res.All() {
		key := fmt.Sprintf("%s/%s%s", prefix, r.Name, r.Ext)
		if err := s.upload(ctx, key, &r); err != nil {
			s.discard(ctx, uploaded)
			return models.Variants{}, fmt.Errorf("store %s: %w", r.Name, err)
		}
		uploaded = append(uploaded, key)
		refs[r.Name] = r.Ref(key)
	}

	variants := models.Variants{
		Original: refs[models.VariantOriginal],
		Medium:   refs[models.VariantMedium],
		Thumb:    refs[models.VariantThumb],
	}
	if variants.Original.IsZero() || variants.Medium.IsZero() || variants.Thumb.IsZero() {
		s.discard(ctx, uploaded)
		return models.Variants{}, fmt.Errorf("%w: missing rendition", processing.ErrProcessing)
	}

	if err := s.store.SetVariants(ctx, photoID, variants, title); err != nil {
		s.discard(ctx, uploaded)
		return models.Variants{}, err
	}
	return variants, nil
}

func (s *PhotoService) upload(ctx context.Context, key string, r *processing.Rendition) error {
	body, err := r.Open()
	if err != nil {
		return err
	}
	defer body.Close()
	return s.objects.Put(ctx, key, body, r.Size, r.ContentType)
}

func (s *PhotoService) discard(ctx context.Context, keys []string) {
	if err := storage.DeleteAll(context.WithoutCancel(ctx), s.objects, keys); err != nil {
		log.Println("Error discarding uploaded renditions:", err)
	}
}

// View builds the client representation: rendition URLs, like count and
// whether viewerID likes the photo.
func (s *PhotoService) View(ctx context.Context, photo *models.Photo, viewerID string) (*models.PhotoResponse, error) {
	resp := &models.PhotoResponse{
		ID:        photo.ID,
		UserID:    photo.UserID,
		Title:     photo.Title,
		Status:    photo.Status,
		Variants:  make(map[string]models.VariantResponse, 3),
		CreatedAt: photo.CreatedAt,
		UpdatedAt: photo.UpdatedAt,
	}

	for name, ref := range map[string]models.FileRef{
		models.VariantOriginal: photo.Variants.Original,
		models.VariantMedium:   photo.Variants.Medium,
		models.VariantThumb:    photo.Variants.Thumb,
	} {
		if ref.IsZero() {
			continue
		}
		url, err := s.objects.URL(ctx, ref.Key)
		if err != nil {
			log.Println("Error generating URL:", err)
		}
		resp.Variants[name] = models.VariantResponse{FileRef: ref, URL: url}
	}

	count, err := s.likes.Count(ctx, photo.ID)
	if err != nil {
		return nil, err
	}
	resp.Likes = count

	liked, err := s.likes.LikedBy(ctx, photo.ID, viewerID)
	if err != nil {
		return nil, err
	}
	resp.Liked = liked
	return resp, nil
}
