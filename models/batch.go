package models

// BatchJob renders one design across every template of a category.
type BatchJob struct {
	Design         []byte
	CategoryFilter ProductCategory
	Config         RenderConfig
	OutputFormat   OutputFormat
	OutputQuality  int
}

// BatchItem is the outcome for one template; exactly one of Result and Failure is set.
type BatchItem struct {
	TemplateID string
	Result     *RenderResult
	Failure    *RenderFailure
}

// OK reports whether the template rendered.
func (i BatchItem) OK() bool {
	return i.Result != nil
}

// BatchStats aggregates a batch. Timing and cache counts cover successes only.
type BatchStats struct {
	Total          int   `json:"total"`
	CachedCount    int   `json:"cached"`
	GeneratedCount int   `json:"generated"`
	FailedCount    int   `json:"failed"`
	TotalTimeMs    int64 `json:"totalTime"`
	AverageTimeMs  int64 `json:"averageTime"`
	WallTimeMs     int64 `json:"wallTime"`
}

// BatchResult is the ordered outcome of a batch, one item per template in catalog order.
type BatchResult struct {
	BatchID string
	Items   []BatchItem
	Stats   BatchStats
}
