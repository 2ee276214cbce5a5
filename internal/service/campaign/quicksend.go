package campaign

import (
	"context"
	"errors"
	"strings"

	"github.com/jmehdipour/sms-panel/internal/metrics"
	"github.com/jmehdipour/sms-panel/internal/model"
	"go.uber.org/zap"
)

type QuickSendCmd struct {
	Phone   string `validate:"required,phone"`
	Message string `validate:"required,max=1600"`
}

// QuickSend delivers one message outside any campaign, charged to the caller.
func (e *Engine) QuickSend(ctx context.Context, id model.Identity, cmd QuickSendCmd) error {
	cmd.Phone = strings.TrimSpace(cmd.Phone)
	if err := e.validate.Struct(cmd); err != nil {
		return err
	}

	if _, err := e.ledger.Debit(ctx, id.AccountID, 1); err != nil {
		return err
	}

	bk := context.WithoutCancel(ctx)
	if err := e.send(ctx, model.SMS{Phone: cmd.Phone, Text: cmd.Message}); err != nil {
		metrics.QuickSendsTotal.WithLabelValues("failed").Inc()
		if refundErr := e.refund(bk, id.AccountID); refundErr != nil {
			return errors.Join(err, refundErr)
		}
		return err
	}

	entry := model.UsageLogEntry{
		AccountID: id.AccountID,
		Phone:     cmd.Phone,
		Message:   cmd.Message,
		Status:    model.ContactSent,
	}
	if err := e.usage.Append(bk, &entry); err != nil {
		e.log.Error("usage log append failed", zap.Int64("account_id", id.AccountID), zap.Error(err))
		return err
	}
	metrics.QuickSendsTotal.WithLabelValues("sent").Inc()
	return nil
}
