package contact

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a copy of Values taken at a successful submit. It never changes
// after creation and is only replaced by the next successful submit.
type Snapshot struct {
	ID          uuid.UUID `json:"id"`
	Values      Values    `json:"values"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// HasMessage reports whether the optional message was entered.
func (s Snapshot) HasMessage() bool {
	return s.Values.Message != ""
}
