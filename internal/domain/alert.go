package domain

// AlertType classifies a one-shot alert for presentation.
type AlertType string

// Alert types understood by the presentation layer.
const (
	AlertSuccess AlertType = "success"
	AlertError   AlertType = "error"
	AlertInfo    AlertType = "info"
)

// Alert is a one-shot message persisted across a navigation and consumed
// exactly once on the next read.
type Alert struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
}

// Confirmation is the message upstream services return for mutations that
// carry no entity body, such as deletes.
type Confirmation struct {
	Message string
}
