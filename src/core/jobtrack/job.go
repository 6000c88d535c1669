package jobtrack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JobKind selects phase thresholds and completion routing for a tracked job.
type JobKind string

const (
	KindStoreCreation JobKind = "store_creation"
	KindProductEdit   JobKind = "product_edit"
)

func (k JobKind) Valid() bool {
	return k == KindStoreCreation || k == KindProductEdit
}

// Status is the backend-reported job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the wire representation returned by the status endpoint.
type Job struct {
	ID       string          `json:"id"`
	Status   Status          `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Operation is a request to start a backend job.
type Operation struct {
	Kind      JobKind
	Prompt    string
	ProductID string
}

func (op Operation) normalized() Operation {
	op.Prompt = strings.TrimSpace(op.Prompt)
	op.ProductID = strings.TrimSpace(op.ProductID)
	return op
}

func (op Operation) String() string {
	if op.Kind == KindProductEdit {
		return fmt.Sprintf("%s(product=%s)", op.Kind, op.ProductID)
	}
	return string(op.Kind)
}

// Progress is the observer payload emitted after every successful status query.
type Progress struct {
	JobID   string
	Kind    JobKind
	Status  Status
	Percent int
	Phase   string
}
