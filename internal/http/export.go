package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jmehdipour/sms-panel/internal/http/middleware"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	echo "github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportSheet     = "Report"
	contactsSheet   = "Contacts"

	// exportPageSize is how many contacts one store round trip fetches while
	// building a cross-campaign export.
	exportPageSize = 1000
)

var (
	reportHeader   = []string{"id", "phone_number", "status"}
	contactsHeader = []string{"id", "campaign_id", "phone_number", "status"}
)

// exportFormat reads ?format=, defaulting to csv.
func exportFormat(c echo.Context) (string, bool) {
	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}
	return format, format == "csv" || format == "xlsx"
}

// exportReport sends the campaign report as csv (default) or xlsx.
func (h *campaignHandlers) exportReport(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	format, ok := exportFormat(c)
	if !ok {
		return badRequest(c, "format must be csv or xlsx")
	}

	campaignID := c.Param("id")
	rows, err := h.engine.GetReport(c.Request().Context(), id, campaignID)
	if err != nil {
		return respondError(c, err)
	}

	table := make([][]any, 0, len(rows))
	for _, r := range rows {
		table = append(table, []any{r.ID, r.Phone, r.Status.String()})
	}
	return sendTable(c, format, fmt.Sprintf("campaign_%s_report", campaignID), reportSheet, reportHeader, table)
}

// contactsHandlers serve the admin view over the contacts of every campaign.
type contactsHandlers struct {
	engine *campaign.Engine
}

func (h *contactsHandlers) list(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	page := repository.ContactPage{Status: model.ContactStatus(c.QueryParam("status"))}
	if v := c.QueryParam("before_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return badRequest(c, "before_id must be a positive integer")
		}
		page.BeforeID = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		page.Limit = n
	}

	list, err := h.engine.ListAllContacts(c.Request().Context(), id, page)
	if err != nil {
		return respondError(c, err)
	}
	var next int64
	if len(list) > 0 {
		next = list[len(list)-1].ID
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(list), "results": list, "next_before_id": next})
}

// export downloads every contact of every campaign, newest first.
func (h *contactsHandlers) export(c echo.Context) error {
	id, _ := middleware.IdentityFromCtx(c)
	format, ok := exportFormat(c)
	if !ok {
		return badRequest(c, "format must be csv or xlsx")
	}
	ctx := c.Request().Context()

	var table [][]any
	page := repository.ContactPage{Limit: exportPageSize}
	for {
		list, err := h.engine.ListAllContacts(ctx, id, page)
		if err != nil {
			return respondError(c, err)
		}
		for _, ct := range list {
			table = append(table, []any{ct.ID, ct.CampaignID, ct.Phone, ct.Status.String()})
		}
		if len(list) < exportPageSize {
			break
		}
		page.BeforeID = list[len(list)-1].ID
	}
	if len(table) == 0 {
		return c.JSON(http.StatusNotFound, errorBody{Error: "not_found", Message: "no campaign contacts found"})
	}
	return sendTable(c, format, "campaign_contacts", contactsSheet, contactsHeader, table)
}

func sendTable(c echo.Context, format, filename, sheet string, header []string, rows [][]any) error {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "xlsx":
		body, err = tableXLSX(sheet, header, rows)
		contentType = xlsxContentType
	default:
		body, err = tableCSV(header, rows)
		contentType = csvContentType
	}
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.%s"`, filename, format))
	return c.Blob(http.StatusOK, contentType, body)
}

func tableCSV(header []string, rows [][]any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	record := make([]string, len(header))
	for _, r := range rows {
		for i, v := range r {
			record[i] = fmt.Sprint(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func tableXLSX(sheet string, header []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
