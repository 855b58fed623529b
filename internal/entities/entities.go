package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnnotationType string

const (
	AnnotationTypeAudio AnnotationType = "audio"
	AnnotationTypeImage AnnotationType = "image"
	AnnotationTypeVideo AnnotationType = "video"
	AnnotationTypeText  AnnotationType = "text"
)

// Valid reports whether t is one of the four known annotation types.
func (t AnnotationType) Valid() bool {
	switch t {
	case AnnotationTypeAudio, AnnotationTypeImage, AnnotationTypeVideo, AnnotationTypeText:
		return true
	}
	return false
}

type Book struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	Title          string       `gorm:"index;size:512;not null" json:"title"`
	Author         string       `gorm:"index;size:256" json:"author,omitempty"`
	CoverImagePath string       `gorm:"size:1024" json:"cover_image_path,omitempty"`
	ISBN           string       `gorm:"index;size:20" json:"isbn,omitempty"`
	Archived       bool         `gorm:"index;default:false" json:"archived"`
	Annotations    []Annotation `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"annotations,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type Annotation struct {
	ID     string         `gorm:"primaryKey;size:36" json:"id"`
	BookID string         `gorm:"index;size:36;not null" json:"book_id"`
	Type   AnnotationType `gorm:"size:10;not null" json:"type"`

	// Media backing the annotation. At most one is set, matching Type.
	AudioPath string `gorm:"size:1024" json:"audio_path,omitempty"`
	ImagePath string `gorm:"size:1024" json:"image_path,omitempty"`
	VideoPath string `gorm:"size:1024" json:"video_path,omitempty"`

	Caption       string  `gorm:"type:text" json:"caption,omitempty"`
	Transcription string  `gorm:"type:text" json:"transcription,omitempty"`
	Duration      float64 `json:"duration,omitempty"` // seconds, audio/video only
	PageNumber    string  `gorm:"size:50" json:"page_number,omitempty"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Annotation) TableName() string {
	return "annotations"
}

// BeforeCreate assigns a UUID when the caller did not provide an ID.
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

func (a *Annotation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// MediaPath returns the media file backing the annotation, if any.
func (a *Annotation) MediaPath() string {
	switch a.Type {
	case AnnotationTypeAudio:
		return a.AudioPath
	case AnnotationTypeImage:
		return a.ImagePath
	case AnnotationTypeVideo:
		return a.VideoPath
	}
	return ""
}

// Validate enforces the media/type invariant: audio, image and video
// annotations carry exactly the media path matching their type, text
// annotations carry none.
func (a *Annotation) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("unknown annotation type %q", a.Type)
	}
	if a.BookID == "" {
		return fmt.Errorf("annotation requires a book id")
	}

	populated := 0
	for _, p := range []string{a.AudioPath, a.ImagePath, a.VideoPath} {
		if p != "" {
			populated++
		}
	}

	switch a.Type {
	case AnnotationTypeText:
		if populated != 0 {
			return fmt.Errorf("text annotation must not reference media")
		}
	default:
		if populated != 1 || a.MediaPath() == "" {
			return fmt.Errorf("%s annotation requires exactly its %s path", a.Type, a.Type)
		}
	}
	return nil
}
