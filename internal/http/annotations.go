package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marginalia/internal/entities"
	"marginalia/internal/tasks"
)

type AnnotationsController struct {
	annotations AnnotationStore
	books       BookStore
	taskClient  *tasks.Client
}

func NewAnnotationsController(annotations AnnotationStore, books BookStore, taskClient *tasks.Client) *AnnotationsController {
	return &AnnotationsController{
		annotations: annotations,
		books:       books,
		taskClient:  taskClient,
	}
}

func (controller *AnnotationsController) ListForBook(c *gin.Context) {
	book, err := controller.books.FindBook(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if book == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	annotations, err := controller.annotations.ListForBook(book.ID)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"annotations": annotations, "count": len(annotations)})
}

func (controller *AnnotationsController) GetAnnotation(c *gin.Context) {
	annotation, err := controller.annotations.FindAnnotation(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if annotation == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "annotation not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, annotation)
}

type createAnnotationRequest struct {
	BookID     string                  `json:"book_id" binding:"required"`
	Type       entities.AnnotationType `json:"type" binding:"required"`
	AudioPath  string                  `json:"audio_path"`
	ImagePath  string                  `json:"image_path"`
	VideoPath  string                  `json:"video_path"`
	Caption    string                  `json:"caption"`
	Duration   float64                 `json:"duration"`
	PageNumber string                  `json:"page_number"`
}

func (controller *AnnotationsController) CreateAnnotation(c *gin.Context) {
	var req createAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := controller.books.FindBook(req.BookID)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if book == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	annotation := &entities.Annotation{
		BookID:     req.BookID,
		Type:       req.Type,
		AudioPath:  req.AudioPath,
		ImagePath:  req.ImagePath,
		VideoPath:  req.VideoPath,
		Caption:    req.Caption,
		Duration:   req.Duration,
		PageNumber: req.PageNumber,
	}
	if err := controller.annotations.Save(annotation); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, annotation)
}

type updateAnnotationRequest struct {
	Caption    *string `json:"caption"`
	PageNumber *string `json:"page_number"`
	// Transcription arrives asynchronously from the speech-to-text
	// service once it finishes processing the recording.
	Transcription *string `json:"transcription"`
}

func (controller *AnnotationsController) UpdateAnnotation(c *gin.Context) {
	annotation, err := controller.annotations.FindAnnotation(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if annotation == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "annotation not found"})
		return
	}

	var req updateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Caption != nil {
		annotation.Caption = *req.Caption
	}
	if req.PageNumber != nil {
		annotation.PageNumber = *req.PageNumber
	}
	if req.Transcription != nil {
		annotation.Transcription = *req.Transcription
	}

	if err := controller.annotations.Save(annotation); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, annotation)
}

func (controller *AnnotationsController) DeleteAnnotation(c *gin.Context) {
	mediaPath, err := controller.annotations.Delete(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if mediaPath != "" && controller.taskClient != nil {
		_, _ = controller.taskClient.Add(tasks.CleanupMediaTask{Paths: []string{mediaPath}}).Save()
	}

	c.IndentedJSON(http.StatusOK, gin.H{"deleted": true})
}
