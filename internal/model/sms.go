package model

// SMS is what the delivery channel receives. A message carrying media is
// delivered as MMS.
type SMS struct {
	Phone string     `json:"phone"`
	Text  string     `json:"text"`
	Media []MediaRef `json:"media,omitempty"`
}

func (s SMS) IsMMS() bool { return len(s.Media) > 0 }
