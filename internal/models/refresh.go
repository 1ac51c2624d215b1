package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSnapshot is the record of one completed cache refresh.
type RefreshSnapshot struct {
	ID          uuid.UUID     `json:"id"`
	Query       NearbyQuery   `json:"query"`
	Records     []ImageRecord `json:"records"`
	CompletedAt time.Time     `json:"completed_at"`
}
