package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Image struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      string    `json:"user_id" gorm:"not null;index;size:36"`
	StoragePath string    `json:"file_path" gorm:"column:file_path;not null;default:''"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// UploadKey is the object key issued with a presigned upload ticket. Only that key can confirm the image.
	UploadKey string `json:"-" gorm:"column:upload_key;not null;default:''"`

	// Relationship
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Image) TableName() string {
	return "images"
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Pending reports whether the image is still waiting for its bytes to be confirmed.
func (i *Image) Pending() bool {
	return i.StoragePath == ""
}

// ImageRead is the response shape for an image with a freshly computed retrieval reference.
type ImageRead struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	StoragePath  string    `json:"file_path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	PresignedURL *string   `json:"presigned_url"`
}

func NewImageRead(img Image, reference string) ImageRead {
	read := ImageRead{
		ID:          img.ID,
		UserID:      img.UserID,
		StoragePath: img.StoragePath,
		CreatedAt:   img.CreatedAt,
		UpdatedAt:   img.UpdatedAt,
	}
	if reference != "" {
		read.PresignedURL = &reference
	}
	return read
}
