// Package handler exposes the analytics and customer read endpoints.
package handler

import (
	"fmt"
	"net/http"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/service"
	"fieldservice_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgNotFound       = "not found"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler handles HTTP requests for analytics and customers.
type Handler struct {
	svc *service.Service
}

// New creates a new analytics handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the analytics routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/overview", h.Overview)
	rg.GET("/overview/export", h.ExportJobsCSV)
	rg.GET("/map", h.Map)
	rg.GET("/geographic", h.Geographic)
	rg.GET("/technicians/performance", h.TechnicianPerformance)
	rg.GET("/technicians/performance/export", h.ExportTechnicianPerformance)
	rg.GET("/technicians/jobs", h.TechnicianJobs)
}

// RegisterCustomerRoutes registers the customer lookup routes.
func (h *Handler) RegisterCustomerRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Customers)
	rg.GET("/:customerId/jobs", h.CustomerJobs)
	rg.GET("/:customerId/jobs/:jobId", h.JobDetail)
}

func bindParams(c *gin.Context) (filter.Params, bool) {
	var p filter.Params
	if err := c.ShouldBindQuery(&p); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return p, false
	}
	return p, true
}

func (h *Handler) Overview(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	result, err := h.svc.Overview(c.Request.Context(), p)
	if httpkit.HandleErrorWithData(c, err, result.Data) {
		return
	}
	httpkit.OKWithSource(c, result.Data, string(result.Source))
}

func (h *Handler) Map(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	result, err := h.svc.MapData(c.Request.Context(), p)
	if httpkit.HandleErrorWithData(c, err, result) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Geographic(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	result, err := h.svc.Geographic(c.Request.Context(), p)
	if httpkit.HandleErrorWithData(c, err, result) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) TechnicianPerformance(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	result, err := h.svc.TechnicianPerformance(c.Request.Context(), p)
	if httpkit.HandleErrorWithData(c, err, result) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ExportTechnicianPerformance(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	data, err := h.svc.TechnicianPerformanceXLSX(c.Request.Context(), p)
	if httpkit.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("technician-performance-%s.xlsx", h.svc.Normalize(p, filter.DefaultLimit).Now.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) TechnicianJobs(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	result, err := h.svc.TechnicianJobs(c.Request.Context(), p)
	if httpkit.HandleErrorWithData(c, err, result) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Customers(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	result, err := h.svc.Customers(c.Request.Context(), p)
	if httpkit.HandleErrorWithData(c, err, result) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CustomerJobs(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}
	// A malformed id cannot name an existing customer.
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, msgNotFound, nil)
		return
	}

	result, err := h.svc.CustomerJobHistory(c.Request.Context(), customerID, p)
	if httpkit.HandleErrorWithData(c, err, result) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) JobDetail(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, msgNotFound, nil)
		return
	}
	jobID, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, msgNotFound, nil)
		return
	}

	result, err := h.svc.JobDetail(c.Request.Context(), customerID, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
