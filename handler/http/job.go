package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	jobctrl "storepilot/src/infrastructure/job"
	"storepilot/src/log"
)

const recentStoresLimit = 10

type CreateStoreRequest struct {
	Prompt string `json:"prompt"`
}

type EditProductRequest struct {
	ProductID string `json:"product_id"`
	Prompt    string `json:"prompt"`
}

type JobStatusResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Prompt      string          `json:"prompt"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type RecentStore struct {
	ID            string `json:"id"`
	Prompt        string `json:"prompt"`
	StoreName     string `json:"store_name"`
	StoreURL      string `json:"store_url"`
	ProductsCount int    `json:"products_count"`
	CreatedAt     string `json:"created_at,omitempty"`
	Mode          string `json:"mode"`
}

// StoreConfig is reported by GET /api/config.
type StoreConfig struct {
	ShopDomain  string
	AccessToken string
	Mode        string
}

type ConfigResponse struct {
	ShopifyConfigured bool   `json:"shopify_configured"`
	StoreMode         string `json:"store_mode"`
	ShopDomain        string `json:"shop_domain"`
}

// JobService is the part of the job service the HTTP layer needs.
type JobService interface {
	EnqueueJob(ctx context.Context, taskType, prompt, productID string) (*jobctrl.Job, error)
	GetJob(ctx context.Context, id string) (*jobctrl.Job, error)
	RecentJobs(ctx context.Context, taskType string, limit int) ([]jobctrl.Job, error)
}

type JobHandler struct {
	jobService JobService
	config     StoreConfig
}

func NewJobHandler(jobService JobService, config StoreConfig) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		config:     config,
	}
}

// RegisterRoutes registers the job API routes
func (h *JobHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/create-store", h.CreateStore)
	api.POST("/edit-product", h.EditProduct)
	api.GET("/job-status/:id", h.JobStatus)
	api.GET("/recent-stores", h.RecentStores)
	api.GET("/config", h.Config)
}

func (h *JobHandler) CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}

	job, err := h.jobService.EnqueueJob(c.Request.Context(), jobctrl.TaskTypeStoreCreation, prompt, "")
	if err != nil {
		log.Error(err, "Failed to enqueue store creation job", "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start store creation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":  job.ID,
		"status":  "started",
		"message": "Store creation started successfully",
	})
}

func (h *JobHandler) EditProduct(c *gin.Context) {
	var req EditProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productID := strings.TrimSpace(req.ProductID)
	prompt := strings.TrimSpace(req.Prompt)
	if productID == "" || prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID and prompt are required"})
		return
	}

	job, err := h.jobService.EnqueueJob(c.Request.Context(), jobctrl.TaskTypeProductEdit, prompt, productID)
	if err != nil {
		log.Error(err, "Failed to enqueue product edit job", "request_id", requestID(c), "product_id", productID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start product editing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  job.ID,
		"message": "Product editing started",
	})
}

func (h *JobHandler) JobStatus(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobctrl.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		log.Error(err, "Failed to load job", "request_id", requestID(c), "job_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job status"})
		return
	}

	resp := JobStatusResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Prompt:    job.Prompt,
		StartedAt: job.StartedAt.Format(time.RFC3339),
		Result:    job.Result,
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	if job.Error != nil {
		resp.Error = *job.Error
	}
	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) RecentStores(c *gin.Context) {
	jobs, err := h.jobService.RecentJobs(c.Request.Context(), jobctrl.TaskTypeStoreCreation, recentStoresLimit)
	if err != nil {
		log.Error(err, "Failed to list recent stores", "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list recent stores"})
		return
	}

	stores := make([]RecentStore, 0, len(jobs))
	for _, j := range jobs {
		stores = append(stores, recentStore(j))
	}
	c.JSON(http.StatusOK, stores)
}

func (h *JobHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		ShopifyConfigured: h.config.ShopDomain != "" && h.config.AccessToken != "",
		StoreMode:         h.config.Mode,
		ShopDomain:        h.config.ShopDomain,
	})
}

func recentStore(j jobctrl.Job) RecentStore {
	var result jobctrl.StoreResult
	if err := json.Unmarshal(j.Result, &result); err != nil {
		log.Debug("Unreadable store result", "job_id", j.ID, "error", err.Error())
	}

	store := RecentStore{
		ID:            j.ID,
		Prompt:        j.Prompt,
		StoreName:     result.Concept.StoreName,
		StoreURL:      result.StoreURL,
		ProductsCount: result.ProductsCreated,
		Mode:          result.Mode,
	}
	if store.StoreName == "" {
		store.StoreName = "Unknown Store"
	}
	if store.Mode == "" {
		store.Mode = "demo"
	}
	if j.CompletedAt != nil {
		store.CreatedAt = j.CompletedAt.Format(time.RFC3339)
	}
	return store
}
