package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poke-max/job-analyzer/internal/imaging"
	"github.com/poke-max/job-analyzer/internal/models"
	"github.com/poke-max/job-analyzer/internal/services"
)

// imageExtensions and textExtensions are the accepted upload types.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".gif":  true,
}

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".text": true,
}

// Handlers wires the work queue and the persistence gateway to HTTP.
type Handlers struct {
	worker *services.Worker
	store  *services.Store
}

// New creates the handler set.
func New(worker *services.Worker, store *services.Store) *Handlers {
	return &Handlers{worker: worker, store: store}
}

// Register mounts all routes on the router.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/upload", h.Upload)
	r.POST("/text", h.SubmitText)
	r.GET("/status", h.Status)
	r.GET("/results", h.Results)
	r.POST("/clear", h.Clear)
	r.POST("/pause", h.Pause)
	r.POST("/resume", h.Resume)
	r.GET("/jobs", h.Jobs)
	r.GET("/jobs/:id", h.GetJob)
	r.PUT("/jobs/:id", h.UpdateJob)
	r.DELETE("/jobs/:id", h.DeleteJob)
}

// Health is a liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Upload accepts one or more files under the "files" multipart field (a
// single "file" field also works) and enqueues each as an image or text
// item by extension. An optional "text" field rides along with image
// uploads as supplementary context.
func (h *Handlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no files provided"})
		return
	}

	supplementary := c.PostForm("text")

	// Validate and read the whole batch before touching the queue, so a
	// rejected batch never leaves a partial set of items enqueued.
	var pending []*models.WorkItem
	for _, header := range files {
		ext := strings.ToLower(filepath.Ext(header.Filename))

		var kind models.ItemKind
		switch {
		case imageExtensions[ext]:
			kind = models.KindImage
		case textExtensions[ext]:
			kind = models.KindText
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("unsupported file type %q", ext)})
			return
		}

		src, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("failed to read %s: %v", header.Filename, err)})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("failed to read %s: %v", header.Filename, err)})
			return
		}

		item := &models.WorkItem{
			Name:        header.Filename,
			Kind:        kind,
			SourceBytes: data,
		}
		if kind == models.KindImage {
			item.SupplementaryText = supplementary
			if info, err := imaging.Probe(data); err == nil {
				log.Printf("[api] %s: %s %dx%d", header.Filename, info.Format, info.Width, info.Height)
			}
		}
		pending = append(pending, item)
	}

	accepted := make([]*models.WorkItem, 0, len(pending))
	for _, item := range pending {
		accepted = append(accepted, h.worker.Enqueue(item))
	}

	log.Printf("[api] Accepted %d upload(s)", len(accepted))
	if len(accepted) == 1 {
		c.JSON(http.StatusOK, models.EnqueueResponse{Success: true, Item: accepted[0]})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": accepted})
}

type textRequest struct {
	Name string `json:"name"`
	Text string `json:"text" binding:"required"`
}

// SubmitText enqueues a raw text snippet for classification.
func (h *Handlers) SubmitText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "text must not be empty"})
		return
	}
	name := req.Name
	if name == "" {
		name = "text-submission"
	}

	item := h.worker.Enqueue(&models.WorkItem{
		Name:        name,
		Kind:        models.KindText,
		SourceBytes: []byte(req.Text),
	})
	c.JSON(http.StatusOK, models.EnqueueResponse{Success: true, Item: item})
}

// Status reports the queue snapshot grouped by lifecycle bucket.
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.Status())
}

// Results lists every retained item with the aggregate counters.
func (h *Handlers) Results(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.Results())
}

// Clear drops everything that is not currently processing.
func (h *Handlers) Clear(c *gin.Context) {
	h.worker.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Pause stops the worker from picking up new items.
func (h *Handlers) Pause(c *gin.Context) {
	h.worker.Pause()
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": true})
}

// Resume lets the worker pick up items again.
func (h *Handlers) Resume(c *gin.Context) {
	h.worker.Resume()
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": false})
}

// Jobs queries persisted job documents. Supports ?city=, ?position= and
// ?limit= query parameters.
func (h *Handlers) Jobs(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "persistence is not configured"})
		return
	}

	var filters []services.QueryFilter
	if city := c.Query("city"); city != "" {
		filters = append(filters, services.QueryFilter{Field: "city", Op: "==", Value: city})
	}
	if position := c.Query("position"); position != "" {
		filters = append(filters, services.QueryFilter{Field: "position", Op: "==", Value: position})
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	jobs, err := h.store.QueryJobs(c.Request.Context(), filters, "createdAt", limit)
	if err != nil {
		log.Printf("[api] Job query failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to query jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// GetJob returns one persisted job document by id.
func (h *Handlers) GetJob(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "persistence is not configured"})
		return
	}

	id := c.Param("id")
	job, err := h.store.GetJob(c.Request.Context(), id)
	if err != nil {
		log.Printf("[api] Job lookup failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to fetch job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateJob merges the given fields into an existing job document.
func (h *Handlers) UpdateJob(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "persistence is not configured"})
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no fields to update"})
		return
	}

	id := c.Param("id")
	if err := h.store.UpdateJob(c.Request.Context(), id, fields, true); err != nil {
		log.Printf("[api] Job update failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// DeleteJob removes a job document and, best effort, its stored image.
func (h *Handlers) DeleteJob(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "persistence is not configured"})
		return
	}

	id := c.Param("id")
	job, err := h.store.GetJob(c.Request.Context(), id)
	if err != nil {
		log.Printf("[api] Job lookup failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to fetch job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "job not found"})
		return
	}

	if url, ok := job["imageUrl"].(string); ok && url != "" {
		if objectPath := objectPathFromURL(url); objectPath != "" {
			if _, err := h.store.DeleteImage(c.Request.Context(), objectPath); err != nil {
				log.Printf("[api] Failed to delete image for %s: %v", id, err)
			}
		}
	}

	if err := h.store.DeleteJob(c.Request.Context(), id); err != nil {
		log.Printf("[api] Job delete failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// objectPathFromURL recovers the bucket-relative object path from a public
// storage URL, or returns "" when the URL does not look like one.
func objectPathFromURL(url string) string {
	const host = "storage.googleapis.com/"
	idx := strings.Index(url, host)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(host):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}
