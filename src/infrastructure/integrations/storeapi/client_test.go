package storeapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepilot/src/core/jobtrack"
	"storepilot/src/infrastructure/integrations/storeapi"
)

func TestStartJobRoutesByKind(t *testing.T) {
	type request struct {
		path string
		body map[string]string
		err  error
	}
	requests := make(chan request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		err := json.NewDecoder(r.Body).Decode(&body)
		requests <- request{path: r.URL.Path, body: body, err: err}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "job_id": "j-1"})
	}))
	defer srv.Close()

	c := storeapi.NewClient(srv.URL+"/", srv.Client())

	tests := []struct {
		name     string
		op       jobtrack.Operation
		wantPath string
		wantBody map[string]string
	}{
		{
			name:     "product edit",
			op:       jobtrack.Operation{Kind: jobtrack.KindProductEdit, ProductID: "42", Prompt: "add sizes"},
			wantPath: "/api/edit-product",
			wantBody: map[string]string{"product_id": "42", "prompt": "add sizes"},
		},
		{
			name:     "store creation",
			op:       jobtrack.Operation{Kind: jobtrack.KindStoreCreation, Prompt: "tea shop"},
			wantPath: "/api/create-store",
			wantBody: map[string]string{"prompt": "tea shop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := c.StartJob(context.Background(), tt.op)
			require.NoError(t, err)
			assert.Equal(t, "j-1", id)

			got := <-requests
			require.NoError(t, got.err)
			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, tt.wantBody, got.body)
		})
	}
}

func TestStartJobSurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Prompt is required"}`))
	}))
	defer srv.Close()

	_, err := storeapi.NewClient(srv.URL, srv.Client()).
		StartJob(context.Background(), jobtrack.Operation{Kind: jobtrack.KindStoreCreation, Prompt: "x"})

	var apiErr *jobtrack.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Prompt is required", apiErr.Message)
}

func TestJobStatusDecodesWireRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/job-status/abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"abc","status":"completed","progress":100,"prompt":"p","started_at":"2024-01-01T00:00:00Z","result":{"product_id":"42"}}`))
	}))
	defer srv.Close()

	job, err := storeapi.NewClient(srv.URL, srv.Client()).JobStatus(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.JSONEq(t, `{"product_id":"42"}`, string(job.Result))
}

func TestJobStatusNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Job not found"}`))
	}))
	defer srv.Close()

	_, err := storeapi.NewClient(srv.URL, srv.Client()).JobStatus(context.Background(), "gone")

	var apiErr *jobtrack.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestRecentStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","store_name":"Tea Co","products_count":5,"mode":"demo"}]`))
	}))
	defer srv.Close()

	stores, err := storeapi.NewClient(srv.URL, srv.Client()).RecentStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "Tea Co", stores[0].StoreName)
	assert.Equal(t, 5, stores[0].ProductsCount)
}
