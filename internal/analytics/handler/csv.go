package handler

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

var jobCSVHeaders = []string{
	"Job Number", "Status", "Type", "Priority", "Created At", "Closed At",
	"Customer", "Phone", "Province", "District", "Technicians", "Technician Count",
}

// ExportJobsCSV streams the filtered job list as CSV.
func (h *Handler) ExportJobsCSV(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}

	rows, err := h.svc.ExportJobs(c.Request.Context(), p)
	if httpkit.HandleError(c, err) {
		return
	}

	f := h.svc.Normalize(p, filter.DefaultLimit)
	writer, ok := startCsvResponse(c, fmt.Sprintf("jobs-%s.csv", f.Now.Format("2006-01-02")))
	if !ok {
		return
	}
	for _, row := range rows {
		if err := writer.Write(jobCSVRow(row, f.Location)); err != nil {
			return
		}
	}
	writer.Flush()
}

func startCsvResponse(c *gin.Context, filename string) (*csv.Writer, bool) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(jobCSVHeaders); err != nil {
		return nil, false
	}
	return writer, true
}

func jobCSVRow(row transport.JobRow, loc *time.Location) []string {
	closedAt := ""
	if row.ClosedAt != nil {
		closedAt = row.ClosedAt.In(loc).Format(time.RFC3339)
	}
	province, district := "", ""
	if row.Location != nil {
		province, district = row.Location.Province, row.Location.District
	}
	return []string{
		row.JobNumber,
		row.Status,
		row.Type,
		row.Priority,
		row.CreatedAt.In(loc).Format(time.RFC3339),
		closedAt,
		row.CustomerContact.Name,
		row.CustomerContact.Phone,
		province,
		district,
		row.TechnicianNames,
		strconv.Itoa(row.TechnicianCount),
	}
}
