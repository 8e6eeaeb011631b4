// Package analytics provides the analytics bounded context module: dashboard
// aggregations and customer lookups over the job records.
package analytics

import (
	"fieldservice_backend/internal/analytics/handler"
	"fieldservice_backend/internal/analytics/service"
	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the analytics module with all its dependencies.
// snapshots may be nil, in which case every overview is computed live.
func NewModule(
	store records.Reader,
	snapshots service.SnapshotReader,
	cfg config.MetricsConfig,
	clk clock.Clock,
	log *logger.Logger,
) *Module {
	svc := service.New(store, snapshots, cfg, clk, log)
	return &Module{handler: handler.New(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// Service returns the service layer for the precomputation worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts analytics and customer routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/analytics"))
	m.handler.RegisterCustomerRoutes(ctx.V1.Group("/customers"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
