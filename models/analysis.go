package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AnalysisUploaded   = "uploaded"
	AnalysisProcessing = "processing"
	AnalysisDone       = "done"
	AnalysisFailed     = "failed"
)

// ImageAnalysis is written by the external analysis job. This service only reads it.
type ImageAnalysis struct {
	ID                 string      `json:"id" gorm:"primaryKey;size:36"`
	ImageID            string      `json:"image_id" gorm:"uniqueIndex;not null;size:36"`
	ExternalStorageKey string      `json:"external_storage_key" gorm:"not null"`
	Status             string      `json:"status" gorm:"not null;default:'uploaded';check:status IN ('uploaded','processing','done','failed')"`
	Results            JSONResults `json:"results,omitempty" gorm:"type:jsonb"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	Image Image `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ImageAnalysis) TableName() string {
	return "image_analysis"
}

func (a *ImageAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// JSONResults holds the raw result document. A nil or JSON null value means no results yet.
type JSONResults []byte

func (r JSONResults) Empty() bool {
	return len(r) == 0 || string(r) == "null"
}

// Decode unmarshals the document into a generic tree.
func (r JSONResults) Decode() (any, error) {
	if r.Empty() {
		return nil, nil
	}
	var tree any
	if err := json.Unmarshal(r, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (r JSONResults) Value() (driver.Value, error) {
	if r.Empty() {
		return nil, nil
	}
	return string(r), nil
}

func (r *JSONResults) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = JSONResults(v)
	default:
		return fmt.Errorf("unsupported results type %T", value)
	}
	return nil
}

func (r JSONResults) MarshalJSON() ([]byte, error) {
	if r.Empty() {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *JSONResults) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
