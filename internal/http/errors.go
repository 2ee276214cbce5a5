package http

import (
	"errors"
	"net/http"

	"github.com/jmehdipour/sms-panel/internal/errs"
	echo "github.com/labstack/echo/v4"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{errs.ErrCampaignNotFound, http.StatusNotFound, "campaign_not_found"},
	{errs.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{errs.ErrAlreadyDispatched, http.StatusConflict, "already_dispatched"},
	{errs.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{errs.ErrLeaseLost, http.StatusConflict, "dispatch_preempted"},
	{errs.ErrDuplicate, http.StatusConflict, "duplicate"},
	{errs.ErrInsufficientCredit, http.StatusPaymentRequired, "insufficient_credit"},
	{errs.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{errs.ErrContactParse, http.StatusBadRequest, "contact_parse_error"},
	{errs.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{errs.ErrForbidden, http.StatusForbidden, "forbidden"},
	{errs.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
	{errs.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{errs.ErrChannelFailure, http.StatusBadGateway, "channel_failure"},
	{errs.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{errs.ErrQueueUnavailable, http.StatusServiceUnavailable, "queue_unavailable"},
}

// respondError maps domain errors onto status codes. Dependency failures are
// flagged retryable so clients know a later attempt may succeed.
func respondError(c echo.Context, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			if m.status >= 500 {
				c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
			}
			return c.JSON(m.status, errorBody{Error: m.code, Message: err.Error(), Retryable: errs.Retryable(err)})
		}
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}
