package models

import (
	"time"
)

// Photo lifecycle states. A processing photo has no guaranteed variants.
const (
	PhotoProcessing = "processing"
	PhotoStored     = "stored"
)

// Variant names attached to every stored photo.
const (
	VariantOriginal = "original"
	VariantMedium   = "medium"
	VariantThumb    = "thumb"
)

// FileRef points at one rendition in the object store.
type FileRef struct {
	Key         string `json:"key" bson:"key"`
	Size        int64  `json:"size" bson:"size"`
	ContentType string `json:"content_type" bson:"content_type"`
	Width       int    `json:"width" bson:"width"`
	Height      int    `json:"height" bson:"height"`
}

func (f FileRef) IsZero() bool {
	return f.Key == ""
}

// Variants is the full set of renditions committed together.
type Variants struct {
	Original FileRef `json:"original" bson:"original" gorm:"embedded;embeddedPrefix:original_"`
	Medium   FileRef `json:"medium" bson:"medium" gorm:"embedded;embeddedPrefix:medium_"`
	Thumb    FileRef `json:"thumb" bson:"thumb" gorm:"embedded;embeddedPrefix:thumb_"`
}

// Keys lists the object keys of every present rendition.
func (v Variants) Keys() []string {
	var keys []string
	for _, ref := range []FileRef{v.Original, v.Medium, v.Thumb} {
		if !ref.IsZero() {
			keys = append(keys, ref.Key)
		}
	}
	return keys
}

type Photo struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:text"`
	UserID    string    `json:"user_id" bson:"user_id" gorm:"index;not null"`
	Title     string    `json:"title" bson:"title"`
	Status    string    `json:"status" bson:"status" gorm:"not null"`
	Variants  Variants  `json:"variants" bson:"variants" gorm:"embedded"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Like is one (user, photo) pair of the likes relation.
type Like struct {
	UserID  string `bson:"user_id" gorm:"primaryKey;type:text;index:idx_likes_photo_user,priority:2"`
	PhotoID string `bson:"photo_id" gorm:"primaryKey;type:text;index:idx_likes_photo_user,priority:1"`
}

func (Like) TableName() string {
	return "likes"
}

type PhotoUpdate struct {
	Title *string `form:"title" json:"title" validate:"omitempty,max=200"`
}

type VariantResponse struct {
	FileRef
	URL string `json:"url"`
}

type PhotoResponse struct {
	ID        string                     `json:"id"`
	UserID    string                     `json:"user_id"`
	Title     string                     `json:"title"`
	Status    string                     `json:"status"`
	Variants  map[string]VariantResponse `json:"variants"`
	Likes     int64                      `json:"likes"`
	Liked     bool                       `json:"liked"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}
