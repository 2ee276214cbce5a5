package http

import (
	"net/http"

	"github.com/jmehdipour/sms-panel/internal/http/middleware"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	echo "github.com/labstack/echo/v4"
)

type sendSMSReq struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// sendSMSHandler delivers a single message outside of any campaign.
func sendSMSHandler(engine *campaign.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, _ := middleware.IdentityFromCtx(c)
		var req sendSMSReq
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "bad request")
		}
		cmd := campaign.QuickSendCmd{Phone: req.Phone, Message: req.Message}
		if err := engine.QuickSend(c.Request().Context(), id, cmd); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"phone": req.Phone, "status": "sent"})
	}
}
