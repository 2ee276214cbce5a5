package model

// DispatchRequest is the payload published to the dispatch topic.
type DispatchRequest struct {
	CampaignID  string `json:"campaign_id"`
	RequestedBy int64  `json:"requested_by"`
	Role        Role   `json:"role"`
}
