package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/service"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds the size of a single uploaded file.
const maxUploadBytes = 32 << 20

var (
	errMissingProjectID = errors.New("projectId is required")
	errMissingContent   = errors.New("document or chunks is required")
	errMissingFile      = errors.New("file is required")
)

// Workflow is what the handlers need from the service layer.
type Workflow interface {
	Index(ctx context.Context, projectID string, doc models.Document) (int, error)
	IndexChunks(ctx context.Context, projectID string, chunks []models.DocumentChunk) (int, error)
	Upload(ctx context.Context, projectID, fileName string, data []byte, category string) (service.UploadResult, error)
	Search(ctx context.Context, projectID, query string, limit int) ([]models.SearchResult, error)
	RemoveDocument(ctx context.Context, projectID, documentID string) error
	Projects(ctx context.Context) ([]*models.Project, error)
	ActiveProjects() int
}

// IndexRequest is the body of POST /index. Exactly one of Document or Chunks
// is expected; Document wins when both are present.
type IndexRequest struct {
	ProjectID string                 `json:"projectId"`
	Document  *models.Document       `json:"document"`
	Chunks    []models.DocumentChunk `json:"chunks"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	ProjectID string `json:"projectId"`
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
}

// RemoveRequest is the body of DELETE /documents.
type RemoveRequest struct {
	ProjectID  string `json:"projectId"`
	DocumentID string `json:"documentId"`
}

// Handler exposes the workflow over HTTP.
type Handler struct {
	workflow Workflow
	now      func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(workflow Workflow) *Handler {
	return &Handler{workflow: workflow, now: time.Now}
}

func (h *Handler) index(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		fail(c, http.StatusBadRequest, errMissingProjectID)
		return
	}

	var (
		n   int
		err error
	)
	switch {
	case req.Document != nil:
		n, err = h.workflow.Index(c.Request.Context(), req.ProjectID, *req.Document)
	case len(req.Chunks) > 0:
		n, err = h.workflow.IndexChunks(c.Request.Context(), req.ProjectID, req.Chunks)
	default:
		err = errMissingContent
	}
	if err != nil {
		failFor(c, err)
		return
	}

	ok(c, gin.H{
		"chunksCreated": n,
		"message":       "Document indexed successfully",
	})
}

func (h *Handler) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		fail(c, http.StatusBadRequest, errMissingProjectID)
		return
	}

	results, err := h.workflow.Search(c.Request.Context(), req.ProjectID, req.Query, req.Limit)
	if err != nil {
		failFor(c, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	ok(c, gin.H{
		"query":        req.Query,
		"results":      results,
		"totalResults": len(results),
	})
}

func (h *Handler) upload(c *gin.Context) {
	projectID := c.PostForm("projectId")
	if strings.TrimSpace(projectID) == "" {
		fail(c, http.StatusBadRequest, errMissingProjectID)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, errMissingFile)
		return
	}
	if header.Size > maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, errors.New("file is too large"))
		return
	}

	f, err := header.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	res, err := h.workflow.Upload(c.Request.Context(), projectID, header.Filename, data, c.PostForm("category"))
	if err != nil {
		failFor(c, err)
		return
	}
	ok(c, res)
}

func (h *Handler) removeDocument(c *gin.Context) {
	var req RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		fail(c, http.StatusBadRequest, errMissingProjectID)
		return
	}

	if err := h.workflow.RemoveDocument(c.Request.Context(), req.ProjectID, req.DocumentID); err != nil {
		failFor(c, err)
		return
	}
	ok(c, gin.H{"message": "Document removed successfully"})
}

func (h *Handler) projects(c *gin.Context) {
	projects, err := h.workflow.Projects(c.Request.Context())
	if errors.Is(err, service.ErrCatalogUnavailable) {
		fail(c, http.StatusServiceUnavailable, err)
		return
	}
	if err != nil {
		failFor(c, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	ok(c, gin.H{"projects": projects})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"status":         "healthy",
		"timestamp":      h.now().UTC().Format(time.RFC3339),
		"activeProjects": h.workflow.ActiveProjects(),
	})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// failFor maps caller mistakes to 400 and everything else to 500.
func failFor(c *gin.Context, err error) {
	if errors.Is(err, errMissingContent) || service.IsBadRequest(err) {
		fail(c, http.StatusBadRequest, err)
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, err)
}
