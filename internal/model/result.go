package model

import "time"

// CitationStatus tracks a citation through the verifier's state machine.
type CitationStatus string

const (
	CitationNone       CitationStatus = ""
	CitationValidating CitationStatus = "validating"
	CitationCompleted  CitationStatus = "completed"
	CitationFailed     CitationStatus = "failed"
)

// Citation is a source URL returned alongside an AI response. Citations
// are embedded in their owning ScanResult and mutated in place by the
// accessibility verifier; they are not separately owned entities.
type Citation struct {
	URL             string         `json:"url"`
	Domain          string         `json:"domain,omitempty"`
	Title           string         `json:"title,omitempty"`
	Status          CitationStatus `json:"status,omitempty"`
	Accessible      bool           `json:"accessible"`
	HTTPStatus      int            `json:"http_status"`
	ValidatedAt     *time.Time     `json:"validated_at,omitempty"`
	ValidationError string         `json:"validation_error,omitempty"`
}

// ScanResult records the outcome of asking one prompt of one model within
// a run. Rows are write-once; only the nested citation list is mutated
// afterward, by the verifier.
type ScanResult struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	PromptID    string     `json:"prompt_id"`
	Layer       Layer      `json:"layer"`
	Model       string     `json:"model"`
	Mentioned   bool       `json:"mentioned"`
	Recommended bool       `json:"recommended"`
	Position    *int       `json:"position,omitempty"`
	Competitors []string   `json:"competitors,omitempty"`
	Response    string     `json:"response,omitempty"`
	Citations   []Citation `json:"citations,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
