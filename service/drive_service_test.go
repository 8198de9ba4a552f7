package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"soundprint-mockup/layers"
)

func newTestDriveService(t *testing.T, handler http.HandlerFunc) *DriveService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ds, err := NewDriveServiceWithOptions(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return ds
}

func TestDriveServiceFetch(t *testing.T) {
	t.Parallel()

	ds := newTestDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/layer-123"):
			assert.Equal(t, "media", r.URL.Query().Get("alt"))
			_, _ = w.Write([]byte("png-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"File not found"}}`))
		}
	})

	data, err := ds.Fetch(context.Background(), "drive://layer-123")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = ds.Fetch(context.Background(), "drive://gone")
	assert.ErrorIs(t, err, layers.ErrAssetNotFound)

	_, err = ds.Fetch(context.Background(), "poster/base.png")
	assert.Error(t, err)
}

func TestDriveServiceListImageFiles(t *testing.T) {
	t.Parallel()

	ds := newTestDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"))
		assert.Contains(t, r.URL.Query().Get("q"), "'folder-1' in parents")

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "page-2",
				"files": []map[string]string{
					{"id": "a", "name": "base.png", "mimeType": "image/png"},
					{"id": "b", "name": "notes.txt", "mimeType": "text/plain"},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"id": "c", "name": "displacement.jpg", "mimeType": "image/jpeg"},
			},
		})
	})

	files, err := ds.ListImageFiles(context.Background(), "folder-1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "drive://a", files[0].Ref)
	assert.Equal(t, "displacement.jpg", files[1].Name)
}
