package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ProgressFunc records a job's progress percentage.
type ProgressFunc func(progress int) error

// Executor runs one task type and returns its result payload.
type Executor interface {
	TaskType() string
	Execute(ctx context.Context, job *Job, report ProgressFunc) (json.RawMessage, error)
}

var ErrCredentialsMissing = errors.New("Shopify credentials not configured")

// StoreConcept is the part of a store result the recent-stores list reads.
type StoreConcept struct {
	StoreName string `json:"store_name"`
}

// StoreResult is the result payload of a store creation job.
type StoreResult struct {
	Concept         StoreConcept `json:"concept"`
	StoreURL        string       `json:"store_url"`
	ProductsCreated int          `json:"products_created"`
	Mode            string       `json:"mode"`
}

// ProductEditResult is the result payload of a product edit job.
type ProductEditResult struct {
	ProductID      string          `json:"product_id"`
	UpdatedProduct json.RawMessage `json:"updated_product"`
	Message        string          `json:"message"`
}

// DemoStoreBuilder walks through the store creation progress steps and
// returns a placeholder store. It stands in for the AI store pipeline.
type DemoStoreBuilder struct {
	ShopDomain string
	StepDelay  time.Duration
}

func (b *DemoStoreBuilder) TaskType() string { return TaskTypeStoreCreation }

func (b *DemoStoreBuilder) Execute(ctx context.Context, job *Job, report ProgressFunc) (json.RawMessage, error) {
	for _, p := range []int{10, 25} {
		if err := step(ctx, b.StepDelay, report, p); err != nil {
			return nil, err
		}
	}

	domain := b.ShopDomain
	if domain == "" {
		domain = "demo-store.myshopify.com"
	}
	return json.Marshal(StoreResult{
		Concept:         StoreConcept{StoreName: storeNameFromPrompt(job.Prompt)},
		StoreURL:        "https://" + domain,
		ProductsCreated: 5,
		Mode:            "demo",
	})
}

// DemoProductEditor walks through the product edit progress steps and echoes
// the requested change back as the updated product.
type DemoProductEditor struct {
	CredentialsConfigured bool
	StepDelay             time.Duration
}

func (e *DemoProductEditor) TaskType() string { return TaskTypeProductEdit }

func (e *DemoProductEditor) Execute(ctx context.Context, job *Job, report ProgressFunc) (json.RawMessage, error) {
	if err := step(ctx, e.StepDelay, report, 10); err != nil {
		return nil, err
	}
	if !e.CredentialsConfigured {
		return nil, ErrCredentialsMissing
	}
	for _, p := range []int{20, 30, 50, 80} {
		if err := step(ctx, e.StepDelay, report, p); err != nil {
			return nil, err
		}
	}

	updated, err := json.Marshal(map[string]string{
		"id":          job.ProductID,
		"change_note": job.Prompt,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(ProductEditResult{
		ProductID:      job.ProductID,
		UpdatedProduct: updated,
		Message:        "Product updated successfully",
	})
}

func step(ctx context.Context, delay time.Duration, report ProgressFunc, progress int) error {
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if err := report(progress); err != nil {
		return fmt.Errorf("failed to report progress %d: %w", progress, err)
	}
	return nil
}

func storeNameFromPrompt(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 4 {
		words = words[:4]
	}
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return "Unknown Store"
	}
	return strings.Join(words, " ") + " Store"
}
