package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/ragdex/internal/client"
	"github.com/raphaelgruber/ragdex/internal/metrics"
	"github.com/raphaelgruber/ragdex/internal/models"
)

func testClient(t *testing.T, handler http.Handler) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, client.Options{})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListStores(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/stores", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(t, w, map[string]any{
			"stores": []map[string]string{
				{"name": "fileSearchStores/alpha", "display_name": "Alpha"},
			},
		})
	}))

	stores, err := c.ListStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "fileSearchStores/alpha", stores[0].Name)
	assert.Equal(t, "Alpha", stores[0].DisplayName)
}

func TestCreateStore(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stores", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Notes", body["display_name"])

		writeJSON(t, w, map[string]any{
			"store": map[string]string{"name": "fileSearchStores/notes", "display_name": "Notes"},
		})
	}))

	store, err := c.CreateStore(context.Background(), "Notes")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/notes", store.Name)
}

func TestUploadMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# notes\n"), 0600))

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "store-1", r.URL.Query().Get("store_id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "notes.md", files[0].Filename)

		writeJSON(t, w, map[string]any{
			"uploaded": []map[string]any{
				{"operation": "operations/1", "display_name": "notes.md", "done": false},
			},
		})
	}))

	ops, err := c.Upload(context.Background(), "store-1", []string{path})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "operations/1", ops[0].Operation)
	assert.False(t, ops[0].Done)
}

func TestUploadMissingFile(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an unreadable file")
	}))

	_, err := c.Upload(context.Background(), "store-1", []string{"/does/not/exist.md"})
	require.Error(t, err)
}

func TestUploadURL(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-url", r.URL.Path)
		assert.Equal(t, "store-2", r.URL.Query().Get("store_id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/doc.pdf", body["url"])
		assert.Equal(t, "doc.pdf", body["display_name"])

		writeJSON(t, w, map[string]any{
			"uploaded": []map[string]any{{"operation": "operations/2"}},
		})
	}))

	ops, err := c.UploadURL(context.Background(), "store-2", "https://example.com/doc.pdf", "doc.pdf")
	require.NoError(t, err)
	require.Len(t, ops, 1)
}

func TestGetOperationStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/operation-status", r.URL.Path)
		assert.Equal(t, "operations/7", r.URL.Query().Get("name"))
		writeJSON(t, w, map[string]any{
			"done":  true,
			"error": "quota exceeded",
		})
	}))

	st, err := c.GetOperationStatus(context.Background(), "operations/7")
	require.NoError(t, err)
	assert.True(t, st.Done)
	require.NotNil(t, st.Error)
	assert.Equal(t, "quota exceeded", *st.Error)
}

func TestListDocumentsNormalizesState(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "store-3", r.URL.Query().Get("store_id"))
		writeJSON(t, w, map[string]any{
			"files": []map[string]any{
				{"name": "documents/a", "state": "STATE_ACTIVE"},
				{"name": "documents/b", "state": "processing"},
				{"name": "documents/c", "state": "something-new"},
			},
		})
	}))

	docs, err := c.ListDocuments(context.Background(), "store-3")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, models.StateReady, docs[0].State)
	assert.Equal(t, models.StateProcessing, docs[1].State)
	assert.Equal(t, models.StateUnknown, docs[2].State)
}

func TestAsk(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)

		var req client.AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what changed?", req.Question)
		require.NotNil(t, req.MaxChunks)
		assert.Equal(t, 8, *req.MaxChunks)

		writeJSON(t, w, map[string]any{
			"answer": "The rollout policy changed.",
			"citations": []map[string]any{
				{"title": "Policy", "document_display_name": "policy.pdf"},
			},
		})
	}))

	maxChunks := 8
	resp, err := c.Ask(context.Background(), client.AskRequest{
		Question:  "what changed?",
		StoreID:   "store-1",
		MaxChunks: &maxChunks,
	})
	require.NoError(t, err)
	assert.Equal(t, "The rollout policy changed.", resp.Answer)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "policy.pdf", resp.Citations[0].DocumentDisplayName)
}

func TestServerErrorIncludesBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"store not found"}`, http.StatusNotFound)
	}))

	_, err := c.ListDocuments(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
	assert.Contains(t, err.Error(), "store not found")
}

func TestMetricsRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"stores": []any{}})
	}))
	t.Cleanup(srv.Close)

	collector := metrics.NewCollector()
	c := client.New(srv.URL, client.Options{Metrics: collector})

	_, err := c.ListStores(context.Background())
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.NotNil(t, snap.Stores)
	assert.Equal(t, int64(1), snap.Stores.Count)
	assert.Equal(t, int64(0), snap.Stores.Errors)
}
