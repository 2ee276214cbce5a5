package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Service hands dispatch requests to the worker pool through the broker.
type Service struct {
	pub Publisher
}

func New(pub Publisher) *Service {
	return &Service{pub: pub}
}

// EnqueueDispatch publishes a request to run the campaign. The campaign id is
// the message key, so requests for one campaign stay ordered on one partition.
func (s *Service) EnqueueDispatch(ctx context.Context, req model.DispatchRequest) error {
	if req.CampaignID == "" {
		return fmt.Errorf("%w: campaign id is required", errs.ErrInvalidInput)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal dispatch request: %w", err)
	}
	if err := s.pub.Publish(ctx, []byte(req.CampaignID), payload); err != nil {
		return fmt.Errorf("%w: publish dispatch request: %v", errs.ErrQueueUnavailable, err)
	}
	return nil
}
