package model

import "time"

type ContactStatus string

const (
	ContactPending ContactStatus = "pending"
	ContactSent    ContactStatus = "sent"
	ContactFailed  ContactStatus = "failed"
)

func (s ContactStatus) String() string { return string(s) }

func (s ContactStatus) Valid() bool {
	return s == ContactPending || s == ContactSent || s == ContactFailed
}

// Contact is one recipient of one campaign.
type Contact struct {
	ID         int64         `json:"id"`
	CampaignID string        `json:"campaign_id"`
	Phone      string        `json:"phone_number"`
	Status     ContactStatus `json:"status"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
