package domain

import "time"

// Update status values.
const (
	UpdateStatusInProgress = "IN_PROGRESS"
	UpdateStatusPending    = "PENDING"
	UpdateStatusDone       = "DONE"
)

// ValidUpdateStatus reports whether s is one of the accepted status values.
func ValidUpdateStatus(s string) bool {
	switch s {
	case UpdateStatusInProgress, UpdateStatusPending, UpdateStatusDone:
		return true
	}
	return false
}

// Update is a changelog entry for a product. Ownership is indirect: an update
// is reachable only through a product the caller owns.
type Update struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	AssetURL    string    `json:"assetUrl,omitempty"`
	Status      string    `json:"updateStatus"`
	ProductID   string    `json:"productUpdatedId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
