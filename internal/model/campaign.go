package model

import "time"

type CampaignStatus string

const (
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignScheduled, CampaignSending, CampaignCompleted, CampaignFailed:
		return true
	}
	return false
}

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo || k == MediaDocument
}

// MediaRef points at an uploaded attachment.
type MediaRef struct {
	Kind MediaKind `json:"kind"`
	Ref  string    `json:"ref"`
}

type Campaign struct {
	ID          string         `json:"id"`
	Message     string         `json:"message"`
	Media       []MediaRef     `json:"media,omitempty"`
	CreatorID   int64          `json:"creator_id"`
	CreatorRole Role           `json:"creator_role"`
	ScheduleAt  *time.Time     `json:"schedule_at,omitempty"`
	Status      CampaignStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// OwnedBy reports whether id may act on the campaign.
func (c Campaign) OwnedBy(id Identity) bool {
	return id.IsAdmin() || (c.CreatorID == id.AccountID && c.CreatorRole == id.Role)
}
