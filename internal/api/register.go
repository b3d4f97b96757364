package api

import (
	"github.com/quaddelta/catalog/internal/app"
	"github.com/quaddelta/catalog/internal/webserver"
)

// Register mounts the full API surface under /api.
func Register(ws *webserver.WebServer, actx app.AppContext) {
	g := ws.Echo().Group("/api")
	RegisterProductRoutes(g, actx.ProductStore())
	RegisterAuditRoutes(g, actx.AuditRecorder())
	RegisterSystemRoutes(g, actx.DB())
}
