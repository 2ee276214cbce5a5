package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/http/middleware"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"github.com/jmehdipour/sms-panel/internal/service/queue"
	echo "github.com/labstack/echo/v4"
)

type campaignHandlers struct {
	engine    *campaign.Engine
	queue     *queue.Service
	uploadDir string
	mediaDir  string
}

func (h *campaignHandlers) create(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)

	cmd := campaign.CreateCampaignCmd{
		Message: c.FormValue("message"),
		Numbers: c.FormValue("numbers"),
	}
	if v := c.FormValue("schedule_at"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "schedule_at must be RFC3339")
		}
		cmd.ScheduleAt = &at
	}

	table, err := contactsUpload(c, h.uploadDir)
	if err != nil {
		return respondError(c, err)
	}
	cmd.Table = table

	media, err := mediaUploads(c, h.mediaDir)
	if err != nil {
		return respondError(c, err)
	}
	cmd.Media = media

	campaignID, err := h.engine.CreateCampaign(c.Request().Context(), id, cmd)
	if err != nil {
		removeMedia(h.mediaDir, media)
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"id":     campaignID,
		"status": model.CampaignScheduled,
	})
}

func (h *campaignHandlers) list(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	status := model.CampaignStatus(c.QueryParam("status"))
	list, err := h.engine.ListCampaigns(c.Request().Context(), id, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(list), "results": list})
}

func (h *campaignHandlers) get(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	s, err := h.engine.GetCampaign(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *campaignHandlers) addContacts(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	table, err := contactsUpload(c, h.uploadDir)
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.engine.IngestContacts(c.Request().Context(), id, c.Param("id"), c.FormValue("numbers"), table)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"id": c.Param("id"), "inserted": n})
}

// dispatch runs the campaign inline, or hands it to the worker pool when
// async=true.
func (h *campaignHandlers) dispatch(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	campaignID := c.Param("id")
	ctx := c.Request().Context()

	if async, _ := strconv.ParseBool(c.QueryParam("async")); async {
		if h.queue == nil {
			return respondError(c, errs.ErrQueueUnavailable)
		}
		// Surface not-found and ownership errors before enqueueing.
		if _, err := h.engine.GetCampaign(ctx, id, campaignID); err != nil {
			return respondError(c, err)
		}
		req := model.DispatchRequest{CampaignID: campaignID, RequestedBy: id.AccountID, Role: id.Role}
		if err := h.queue.EnqueueDispatch(ctx, req); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusAccepted, map[string]any{"id": campaignID, "status": "queued"})
	}

	res, err := h.engine.Dispatch(ctx, id, campaignID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":     campaignID,
		"sent":   res.Sent,
		"failed": res.Failed,
	})
}

type campaignStatusReq struct {
	Status model.CampaignStatus `json:"status"`
}

func (h *campaignHandlers) updateStatus(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	var req campaignStatusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "bad request")
	}
	if err := h.engine.UpdateCampaignStatus(c.Request().Context(), id, c.Param("id"), req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"id": c.Param("id"), "status": req.Status})
}

func (h *campaignHandlers) remove(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	if err := h.engine.DeleteCampaign(c.Request().Context(), id, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *campaignHandlers) report(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	rows, err := h.engine.GetReport(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(rows), "results": rows})
}
