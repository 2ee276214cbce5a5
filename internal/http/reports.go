package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// usageReportHandler serves per-day usage from the ClickHouse replica of the
// usage log. Range defaults to the last 30 days.
func usageReportHandler(chRepo repository.CHUsageRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if chRepo == nil {
			return respondError(c, errs.Store("usage report", errNoAnalytics))
		}
		scope, ok := scopeOf(c)
		if !ok {
			return badRequest(c, "invalid account_id")
		}

		limit := 100
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		to := time.Now()
		from := to.AddDate(0, 0, -30)
		if v := c.QueryParam("from"); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return badRequest(c, "from must be YYYY-MM-DD")
			}
			from = t
		}
		if v := c.QueryParam("to"); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return badRequest(c, "to must be YYYY-MM-DD")
			}
			to = t.AddDate(0, 0, 1)
		}

		rows, err := chRepo.DailyUsage(c.Request().Context(), scope, from, to, limit, offset)
		if err != nil {
			return respondError(c, errs.Store("clickhouse usage", err))
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
