package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/quaddelta/catalog/internal/catalog"
	"github.com/quaddelta/catalog/internal/webserver"
)

type AuditHandler struct {
	recorder *catalog.AuditRecorder
}

func NewAuditHandler(recorder *catalog.AuditRecorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// RegisterAuditRoutes registers the audit history endpoints
func RegisterAuditRoutes(g *echo.Group, recorder *catalog.AuditRecorder) {
	h := NewAuditHandler(recorder)
	g.GET("/audit", h.List)
	g.GET("/audit/export", h.Export)
}

func (h *AuditHandler) List(c echo.Context) error {
	rows, err := h.recorder.List(c.Request().Context(), auditQuery(c))
	if err != nil {
		zap.L().Error("audit query failure", zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Storage operation failed")
	}
	return webserver.OK(c, rows)
}

type auditCSVRow struct {
	ID        int64  `csv:"id"`
	TableName string `csv:"table_name"`
	Action    string `csv:"action"`
	RowData   string `csv:"row_data"`
	ChangedAt string `csv:"changed_at"`
	ChangedBy string `csv:"changed_by"`
}

// Export streams the same filtered window as List, rendered as CSV.
func (h *AuditHandler) Export(c echo.Context) error {
	rows, err := h.recorder.List(c.Request().Context(), auditQuery(c))
	if err != nil {
		zap.L().Error("audit query failure", zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Storage operation failed")
	}

	out := make([]auditCSVRow, 0, len(rows))
	for _, row := range rows {
		csvRow := auditCSVRow{
			ID:        row.ID,
			TableName: row.Table,
			Action:    string(row.Action),
			RowData:   string(row.RowData),
			ChangedAt: row.ChangedAt.UTC().Format(time.RFC3339),
		}
		if row.ChangedBy != nil {
			csvRow.ChangedBy = *row.ChangedBy
		}
		out = append(out, csvRow)
	}

	data, err := gocsv.MarshalString(&out)
	if err != nil {
		zap.L().Error("audit csv encode failure", zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Export failed")
	}

	filename := fmt.Sprintf("audit-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(data))
}

// auditQuery builds the recorder query from query parameters. An explicit
// numeric take is clamped to [1, 500]; anything non-numeric falls back to
// the default of 100. Unparseable time bounds are ignored.
func auditQuery(c echo.Context) catalog.AuditListQuery {
	q := catalog.AuditListQuery{
		Table:  c.QueryParam("table"),
		Action: c.QueryParam("action"),
		Take:   catalog.DefaultAuditTake,
	}

	if raw := strings.TrimSpace(c.QueryParam("take")); raw != "" {
		if n, err := cast.ToIntE(raw); err == nil {
			q.Take = catalog.ClampTake(n)
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("from")); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			q.From = t
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("to")); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			q.To = t
		}
	}
	return q
}
