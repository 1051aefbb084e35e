package models

import "time"

type ConsentAction string

const (
	ConsentGranted ConsentAction = "GRANTED"
	ConsentRevoked ConsentAction = "REVOKED"
)

// Consent is one entry of a user's append-only consent log.
type Consent struct {
	ID        string        `json:"id"`
	UserID    string        `json:"-"`
	Type      string        `json:"type"`
	Action    ConsentAction `json:"action"`
	CreatedAt time.Time     `json:"createdAt"`
}

type LogConsentRequest struct {
	Type   string        `json:"type" validate:"required,min=1,max=50"`
	Action ConsentAction `json:"action" validate:"required,oneof=GRANTED REVOKED"`
}

// ConsentStatus derives the current state per consent type: the latest action wins.
// entries must be ordered oldest first.
func ConsentStatus(entries []Consent) map[string]ConsentAction {
	status := make(map[string]ConsentAction, len(entries))
	for _, e := range entries {
		status[e.Type] = e.Action
	}
	return status
}
