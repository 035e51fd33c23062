package models

// These structs define the JSON payloads exchanged between the HTTP
// front end and its callers.

// EnqueueResponse is returned by the upload endpoints.
type EnqueueResponse struct {
	Success bool      `json:"success"`
	Item    *WorkItem `json:"item"`
}

// StatusResponse is the full snapshot returned by GET /status.
type StatusResponse struct {
	Processing  bool        `json:"processing"`
	Paused      bool        `json:"paused"`
	CurrentItem *WorkItem   `json:"currentItem,omitempty"`
	Stats       Stats       `json:"stats"`
	Files       StatusFiles `json:"files"`
}

// StatusFiles groups items by lifecycle bucket. Failed items are reported
// alongside completed ones, mirroring how the UI consumes them.
type StatusFiles struct {
	Queued     []*WorkItem `json:"queued"`
	Processing []*WorkItem `json:"processing"`
	Completed  []*WorkItem `json:"completed"`
}

// ResultsResponse is returned by GET /results.
type ResultsResponse struct {
	Files []*WorkItem `json:"files"`
	Stats Stats       `json:"stats"`
}

// ErrorResponse carries a user-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
