package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationValidate_AudioRequiresAudioPath(t *testing.T) {
	a := &Annotation{BookID: "b1", Type: AnnotationTypeAudio, AudioPath: "audio/one.m4a"}
	require.NoError(t, a.Validate())

	a.AudioPath = ""
	assert.Error(t, a.Validate())

	a.ImagePath = "images/one.jpg"
	assert.Error(t, a.Validate(), "audio annotation with image path must fail")
}

func TestAnnotationValidate_TextForbidsMedia(t *testing.T) {
	a := &Annotation{BookID: "b1", Type: AnnotationTypeText, Caption: "a note"}
	require.NoError(t, a.Validate())

	a.VideoPath = "videos/clip.mp4"
	assert.Error(t, a.Validate())
}

func TestAnnotationValidate_RejectsMultipleMedia(t *testing.T) {
	a := &Annotation{
		BookID:    "b1",
		Type:      AnnotationTypeVideo,
		VideoPath: "videos/clip.mp4",
		AudioPath: "audio/one.m4a",
	}
	assert.Error(t, a.Validate())
}

func TestAnnotationValidate_UnknownType(t *testing.T) {
	a := &Annotation{BookID: "b1", Type: "sketch"}
	assert.Error(t, a.Validate())
}

func TestAnnotationValidate_RequiresBook(t *testing.T) {
	a := &Annotation{Type: AnnotationTypeText}
	assert.Error(t, a.Validate())
}

func TestAnnotationMediaPath(t *testing.T) {
	assert.Equal(t, "a.m4a", (&Annotation{Type: AnnotationTypeAudio, AudioPath: "a.m4a"}).MediaPath())
	assert.Equal(t, "i.jpg", (&Annotation{Type: AnnotationTypeImage, ImagePath: "i.jpg"}).MediaPath())
	assert.Equal(t, "v.mp4", (&Annotation{Type: AnnotationTypeVideo, VideoPath: "v.mp4"}).MediaPath())
	assert.Empty(t, (&Annotation{Type: AnnotationTypeText}).MediaPath())
}
