package model

import "time"

// UsageLogEntry is an append-only record of one delivered message.
type UsageLogEntry struct {
	ID         int64         `json:"id"`
	AccountID  int64         `json:"account_id"`
	CampaignID *string       `json:"campaign_id,omitempty"`
	ContactID  *int64        `json:"contact_id,omitempty"`
	Phone      string        `json:"phone_number"`
	Message    string        `json:"message"`
	Status     ContactStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}
