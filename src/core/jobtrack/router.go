package jobtrack

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const DefaultEditCloseDelay = 2 * time.Second

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single user-visible message.
type Notification struct {
	Level   Level
	Message string
}

// Handler is the kind-specific behaviour a Session routes job events to.
type Handler interface {
	Submitting()
	Rejected(n Notification)
	Progress(p Progress)
	Completed(ctx context.Context, job *Job)
	Failed(ctx context.Context, job *Job, failure *JobFailure)
	Errored(ctx context.Context, err *PollingError)
}

// StoreView is the store-creation UI region.
type StoreView interface {
	Notify(n Notification)
	SetBusy(busy bool)
	ShowProgress(percent int, phase string)
	RenderResult(result json.RawMessage)
	RefreshRecent(ctx context.Context)
}

// StoreCreationHandler renders results and returns the form to idle.
type StoreCreationHandler struct {
	View StoreView
}

func (h *StoreCreationHandler) Submitting() {
	h.View.SetBusy(true)
	h.View.ShowProgress(0, PhaseText(KindStoreCreation, 0))
}

func (h *StoreCreationHandler) Rejected(n Notification) {
	h.View.SetBusy(false)
	h.View.Notify(n)
}

func (h *StoreCreationHandler) Progress(p Progress) {
	h.View.ShowProgress(p.Percent, p.Phase)
}

func (h *StoreCreationHandler) Completed(ctx context.Context, job *Job) {
	h.View.RenderResult(job.Result)
	h.View.SetBusy(false)
	h.View.Notify(Notification{Level: LevelSuccess, Message: "Store created successfully!"})
	h.View.RefreshRecent(ctx)
}

func (h *StoreCreationHandler) Failed(_ context.Context, _ *Job, failure *JobFailure) {
	h.View.SetBusy(false)
	h.View.Notify(Notification{Level: LevelError, Message: "Store creation failed: " + failure.Message})
}

func (h *StoreCreationHandler) Errored(_ context.Context, err *PollingError) {
	h.View.SetBusy(false)
	h.View.Notify(Notification{Level: LevelError, Message: err.UserMessage()})
}

// EditView is the product editor UI region.
type EditView interface {
	Notify(n Notification)
	SetSubmitEnabled(enabled bool)
	ShowProgress(percent int, phase string)
	CloseEditor()
	ReloadProducts(ctx context.Context, productID string)
}

// ProductEditHandler holds the editor open on failure so the user can retry,
// and closes it a short while after success. A new submission cancels a
// pending close.
type ProductEditHandler struct {
	View       EditView
	Scheduler  Scheduler
	CloseDelay time.Duration

	mu      sync.Mutex
	closing Timer
}

func NewProductEditHandler(view EditView, scheduler Scheduler, closeDelay time.Duration) *ProductEditHandler {
	if scheduler == nil {
		scheduler = SystemScheduler
	}
	return &ProductEditHandler{View: view, Scheduler: scheduler, CloseDelay: closeDelay}
}

func (h *ProductEditHandler) Submitting() {
	h.stopClosing()
	h.View.SetSubmitEnabled(false)
	h.View.ShowProgress(0, PhaseText(KindProductEdit, 0))
}

func (h *ProductEditHandler) Rejected(n Notification) {
	h.View.SetSubmitEnabled(true)
	h.View.Notify(n)
}

func (h *ProductEditHandler) Progress(p Progress) {
	h.View.ShowProgress(p.Percent, p.Phase)
}

func (h *ProductEditHandler) Completed(ctx context.Context, job *Job) {
	h.View.Notify(Notification{Level: LevelSuccess, Message: "Product updated successfully!"})
	h.View.ShowProgress(100, PhaseCompleted)

	productID := editedProductID(job.Result)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing != nil {
		h.closing.Stop()
	}
	h.closing = h.Scheduler.AfterFunc(h.CloseDelay, func() {
		h.View.CloseEditor()
		h.View.ReloadProducts(ctx, productID)
	})
}

func (h *ProductEditHandler) stopClosing() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing != nil {
		h.closing.Stop()
		h.closing = nil
	}
}

func (h *ProductEditHandler) Failed(_ context.Context, _ *Job, failure *JobFailure) {
	h.View.Notify(Notification{Level: LevelError, Message: "Product update failed: " + failure.Message})
	h.View.SetSubmitEnabled(true)
}

func (h *ProductEditHandler) Errored(_ context.Context, err *PollingError) {
	h.View.Notify(Notification{Level: LevelError, Message: err.UserMessage()})
	h.View.SetSubmitEnabled(true)
}

func editedProductID(result json.RawMessage) string {
	var r struct {
		ProductID string `json:"product_id"`
	}
	if len(result) == 0 {
		return ""
	}
	if err := json.Unmarshal(result, &r); err != nil {
		return ""
	}
	return r.ProductID
}
