package models

import "fmt"

// GenerateMockupsRequest is the body of POST /mockups/generate.
// Design is base64 encoded (encoding/json decodes []byte from base64).
type GenerateMockupsRequest struct {
	Design          []byte       `json:"design"`
	Category        string       `json:"category"`
	OutputFormat    string       `json:"outputFormat"`
	OutputQuality   int          `json:"outputQuality"`
	Config          RenderConfig `json:"config"`
	UploadToStorage bool         `json:"uploadToStorage"`
}

// MockupEntry describes one template outcome in a generate response.
type MockupEntry struct {
	TemplateID   string  `json:"templateId"`
	URL          *string `json:"url"`
	Cached       bool    `json:"cached"`
	RenderTimeMs int64   `json:"renderTimeMs"`
	Reason       string  `json:"reason,omitempty"`
	Error        string  `json:"error,omitempty"`
	UploadError  string  `json:"uploadError,omitempty"`
}

// GenerateMockupsResponse is the body returned by POST /mockups/generate.
type GenerateMockupsResponse struct {
	BatchID string        `json:"batchId"`
	Mockups []MockupEntry `json:"mockups"`
	Stats   BatchStats    `json:"stats"`
}

// PreviewRequest is the body of POST /mockups/preview.
type PreviewRequest struct {
	TemplateID    string       `json:"templateId"`
	Design        []byte       `json:"design"`
	Config        RenderConfig `json:"config"`
	OutputFormat  string       `json:"outputFormat"`
	OutputQuality int          `json:"outputQuality"`
	// Size optionally downsizes the preview to a JPEG thumbnail: "thumb" or "medium".
	Size string `json:"size,omitempty"`
}

// RenderRequest validates the body into a render request. Unsupported output formats are
// ErrInvalidRequest.
func (p PreviewRequest) RenderRequest() (RenderRequest, error) {
	format, ok := ParseOutputFormat(p.OutputFormat)
	if !ok {
		return RenderRequest{}, fmt.Errorf("%w: unsupported output format %q", ErrInvalidRequest, p.OutputFormat)
	}
	return RenderRequest{
		TemplateID:    p.TemplateID,
		Design:        p.Design,
		Config:        p.Config,
		OutputFormat:  format,
		OutputQuality: ClampQuality(p.OutputQuality),
	}, nil
}

// CacheStats are the counters exposed by both caches.
type CacheStats struct {
	Entries   int     `json:"entries"`
	SizeBytes int64   `json:"sizeBytes"`
	Size      string  `json:"size"`
	Budget    string  `json:"budget"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Shared    int64   `json:"shared"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hitRate"`
}

// ThroughputStats are cumulative render/upload counters.
type ThroughputStats struct {
	Renders         int64 `json:"renders"`
	RenderFailures  int64 `json:"renderFailures"`
	Batches         int64 `json:"batches"`
	Uploads         int64 `json:"uploads"`
	UploadFailures  int64 `json:"uploadFailures"`
	TotalRenderMs   int64 `json:"totalRenderMs"`
	AverageRenderMs int64 `json:"averageRenderMs"`
}

// ServiceStats is the body of GET /mockups/stats.
type ServiceStats struct {
	Templates   int             `json:"templates"`
	LayerCache  CacheStats      `json:"layerCache"`
	RenderCache CacheStats      `json:"renderCache"`
	Throughput  ThroughputStats `json:"throughput"`
	// Storage is the upload circuit breaker state, empty when uploads are disabled.
	Storage string `json:"storage,omitempty"`
}
