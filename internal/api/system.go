package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quaddelta/catalog/internal/webserver"
	"github.com/quaddelta/catalog/pkg/metrics"
)

// Populated at build time via -ldflags "-X ...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

var metricNames = []string{
	"system_cpuuse",
	"system_memuse",
	"catalog_cpuuse",
	"catalog_memuse",
	"catalog_insert",
	"catalog_update",
	"catalog_delete",
	"catalog_products_total",
	"catalog_audit_total",
}

type SystemHandler struct {
	db      *gorm.DB
	started time.Time
}

func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{db: db, started: time.Now()}
}

// RegisterSystemRoutes registers health, version and metrics endpoints
func RegisterSystemRoutes(g *echo.Group, db *gorm.DB) {
	h := NewSystemHandler(db)
	g.GET("/health", h.Health)
	g.GET("/db/ping", h.DBPing)
	g.GET("/version", h.Version)
	g.GET("/metrics", h.Metrics)
}

func (h *SystemHandler) Health(c echo.Context) error {
	return webserver.OK(c, echo.Map{
		"ok":     true,
		"db":     h.db.Dialector.Name(),
		"now":    time.Now().UTC(),
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// DBPing verifies database connectivity with a lightweight round trip.
func (h *SystemHandler) DBPing(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		zap.L().Error("database ping failure", zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Database unreachable")
	}
	return webserver.OK(c, echo.Map{"ok": true, "now": time.Now().UTC()})
}

func (h *SystemHandler) Version(c echo.Context) error {
	return webserver.OK(c, echo.Map{
		"version":   Version,
		"gitCommit": GitCommit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
	})
}

// Metrics summarizes the known gauges and counters over the last hour.
func (h *SystemHandler) Metrics(c echo.Context) error {
	result := make(map[string]metrics.Stats, len(metricNames))
	for _, name := range metricNames {
		summary, err := metrics.Summary(name, time.Hour)
		if err != nil {
			continue
		}
		result[name] = summary
	}
	return webserver.OK(c, result)
}
