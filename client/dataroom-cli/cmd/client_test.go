package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acme", body["projectId"])
		assert.Equal(t, float64(3), body["limit"])
		_, _ = io.WriteString(w, `{"success":true,"data":{"query":"q","totalResults":1,
			"results":[{"chunk":{"id":"d1_chunk_0","content":"hello","documentId":"d1"},"score":0.8}]}}`)
	}))
	defer srv.Close()

	hits, err := NewClient(srv.URL+"/", time.Second).Search(context.Background(), "acme", "q", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d1", hits[0].Chunk.DocumentID)
	assert.InDelta(t, 0.8, hits[0].Score, 1e-9)
}

func TestClientSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"error":"Failed to search: timeout"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "acme", "q", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to search: timeout")
}

func TestClientUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "acme", r.FormValue("projectId"))
		assert.Equal(t, "legal", r.FormValue("category"))
		f, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer f.Close()
			assert.Equal(t, "nda.txt", header.Filename)
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"documentId":"abc","chunksCreated":2}}`)
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Upload(context.Background(), "acme", "/tmp/docs/nda.txt", "legal", strings.NewReader("text"))
	require.NoError(t, err)
	assert.Equal(t, UploadResult{DocumentID: "abc", ChunksCreated: 2}, res)
}

func TestClientRemoveAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents":
			assert.Equal(t, http.MethodDelete, r.Method)
			_, _ = io.WriteString(w, `{"success":true,"data":{"message":"Document removed successfully"}}`)
		case "/health":
			_, _ = io.WriteString(w, `{"success":true,"status":"healthy","timestamp":"2024-05-01T12:00:00Z","activeProjects":2}`)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	require.NoError(t, c.Remove(context.Background(), "acme", "d1"))

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 2, h.ActiveProjects)
}
