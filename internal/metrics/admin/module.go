// Package admin provides the snapshot administration module: listing stored
// snapshots and requesting recomputation.
package admin

import (
	"time"

	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/platform/validator"
)

// Module is the metrics administration module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(store metrics.Store, enqueuer Enqueuer, loc *time.Location, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(store, enqueuer, loc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "metrics-admin"
}

// RegisterRoutes mounts the routes under /admin/metrics.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/metrics"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
