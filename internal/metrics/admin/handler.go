package admin

import (
	"context"
	"net/http"
	"time"

	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/platform/apperr"
	"fieldservice_backend/platform/httpkit"
	"fieldservice_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgQueueUnavailable  = "precompute queue not configured"
	defaultSnapshotLimit = 30
)

// Enqueuer schedules an asynchronous snapshot recomputation. It reports false
// when an identical request is already pending.
type Enqueuer interface {
	EnqueuePrecompute(ctx context.Context, t metrics.MetricType, anchor time.Time) (bool, error)
}

type ListSnapshotsRequest struct {
	Type  string `form:"type" validate:"required,oneof=daily weekly"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=365"`
}

type PrecomputeRequest struct {
	MetricType string `json:"metricType" validate:"required,oneof=daily weekly"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

type PrecomputeResponse struct {
	MetricType metrics.MetricType `json:"metricType"`
	Date       string             `json:"date"`
	Queued     bool               `json:"queued"`
}

// Handler serves the snapshot administration endpoints.
type Handler struct {
	store    metrics.Store
	enqueuer Enqueuer
	location *time.Location
	val      *validator.Validator
}

// NewHandler creates the handler. enqueuer may be nil when no queue is
// configured; precompute requests then answer 503.
func NewHandler(store metrics.Store, enqueuer Enqueuer, loc *time.Location, val *validator.Validator) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{store: store, enqueuer: enqueuer, location: loc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/snapshots", h.ListSnapshots)
	rg.POST("/precompute", h.Precompute)
}

func (h *Handler) ListSnapshots(c *gin.Context) {
	var req ListSnapshotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultSnapshotLimit
	}

	snaps, err := h.store.List(c.Request.Context(), metrics.MetricType(req.Type), req.Limit)
	if err != nil {
		httpkit.HandleErrorWithData(c, apperr.Store("metrics.list", err), []metrics.Summary{})
		return
	}

	out := make([]metrics.Summary, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Summary())
	}
	httpkit.OK(c, out)
}

func (h *Handler) Precompute(c *gin.Context) {
	var req PrecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	if h.enqueuer == nil {
		httpkit.HandleError(c, apperr.Unavailable(msgQueueUnavailable))
		return
	}

	t := metrics.MetricType(req.MetricType)
	date, _ := time.ParseInLocation(time.DateOnly, req.Date, h.location)
	anchor := metrics.NormalizeAnchor(t, date, h.location)

	queued, err := h.enqueuer.EnqueuePrecompute(c.Request.Context(), t, anchor)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindUnavailable, "failed to enqueue precompute", err))
		return
	}

	httpkit.JSON(c, http.StatusAccepted, PrecomputeResponse{
		MetricType: t,
		Date:       anchor.Format(time.DateOnly),
		Queued:     queued,
	})
}
