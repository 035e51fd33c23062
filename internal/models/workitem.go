package models

import "time"

// ItemKind distinguishes the two kinds of queued content.
type ItemKind string

const (
	KindImage ItemKind = "image"
	KindText  ItemKind = "text"
)

// ItemStatus is the lifecycle state of a WorkItem.
// Transitions are Queued -> Processing -> {Completed | Failed}; terminal
// states are final and items are never requeued.
type ItemStatus string

const (
	StatusQueued     ItemStatus = "queued"
	StatusProcessing ItemStatus = "processing"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
)

// Terminal reports whether the status is final.
func (s ItemStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// WorkItem is one unit of queued work. The id is assigned at enqueue time
// and never changes. Exactly one of Result/Error is set once the item
// reaches a terminal status.
type WorkItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        ItemKind `json:"kind"`
	SourcePath  string   `json:"sourcePath,omitempty"`
	SourceBytes []byte   `json:"-"`
	// SupplementaryText accompanies an image and is appended to the
	// classification prompt verbatim.
	SupplementaryText string `json:"supplementaryText,omitempty"`

	Status      ItemStatus `json:"status"`
	SubmittedAt time.Time  `json:"submittedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Result *ExtractionRecord `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Clone returns a deep-enough copy for handing out past the state lock.
// SourceBytes is shared; callers treat it as read-only.
func (w *WorkItem) Clone() *WorkItem {
	c := *w
	if w.StartedAt != nil {
		t := *w.StartedAt
		c.StartedAt = &t
	}
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		c.CompletedAt = &t
	}
	if w.Result != nil {
		r := *w.Result
		c.Result = &r
	}
	return &c
}

// Stats are the process-wide aggregate counters. All fields are mutated
// under the worker state lock; Queued is the only non-monotonic counter.
type Stats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	JobAds    int `json:"jobAds"`
	NonAds    int `json:"nonAds"`
	Failed    int `json:"failed"`
	Queued    int `json:"queued"`
	Images    int `json:"images"`
	Texts     int `json:"texts"`
}
