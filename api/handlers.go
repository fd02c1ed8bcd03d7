package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
	"growth-scraper/services"
	"growth-scraper/storage"
	"growth-scraper/utils"
)

// DataSource is the part of services.Pipeline the handlers need.
type DataSource interface {
	Load(ctx context.Context) (services.RunResult, error)
	Run(ctx context.Context) (services.RunResult, error)
	LastRun() (models.RunSummary, bool)
}

// Handler serves the dashboard and its JSON endpoints.
type Handler struct {
	data     DataSource
	insights *services.InsightService
	logger   *utils.Logger
}

func NewHandler(data DataSource, insights *services.InsightService, logger *utils.Logger) *Handler {
	return &Handler{data: data, insights: insights, logger: logger}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string             `json:"error"`
	Code      string             `json:"code"`
	Timestamp time.Time          `json:"timestamp"`
	Run       *models.RunSummary `json:"run,omitempty"`
}

// collectStatusHeader carries the status of a collection that still
// produced data the handler chose to serve.
const collectStatusHeader = "X-Collect-Status"

// load fetches the current table. The collection status of the run that
// produced it is checked on every read, cached or not: a degraded run with
// rows is served with a warning header, any other non-ok run is an error.
func (h *Handler) load(c *gin.Context) (services.RunResult, bool) {
	r, err := h.data.Load(c.Request.Context())

	status := r.Summary.Collect
	var statusErr *services.CollectStatusError
	if errors.As(err, &statusErr) {
		status = statusErr.Status
	} else if err != nil {
		h.writeError(c, err, nil)
		return services.RunResult{}, false
	}

	switch {
	case status == "" || status == models.CollectOK:
		return r, true
	case status == models.CollectDegraded && len(r.Table.Records) > 0:
		c.Header(collectStatusHeader, string(status))
		return r, true
	}

	if statusErr == nil {
		statusErr = &services.CollectStatusError{RunID: r.Summary.RunID, Status: status}
	}
	c.Header(collectStatusHeader, string(status))
	var run *models.RunSummary
	if r.Summary.RunID != "" {
		run = &r.Summary
	}
	h.writeError(c, statusErr, run)
	return services.RunResult{}, false
}

func (h *Handler) writeError(c *gin.Context, err error, run *models.RunSummary) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	var statusErr *services.CollectStatusError
	switch {
	case errors.As(err, &statusErr):
		status, code = http.StatusServiceUnavailable, "COLLECT_"+strings.ToUpper(string(statusErr.Status))
	case errors.Is(err, storage.ErrNoData):
		status, code = http.StatusNotFound, "NO_DATA"
	default:
		if typ, ok := apperrors.TypeOf(err); ok {
			switch typ {
			case apperrors.ErrorTypeValidation:
				status, code = http.StatusBadRequest, "VALIDATION_ERROR"
			case apperrors.ErrorTypeCollection:
				status, code = http.StatusBadGateway, "COLLECT_FAILED"
			}
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code, Timestamp: time.Now(), Run: run})
}

// Dashboard serves the HTML page.
func (h *Handler) Dashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", dashboardHTML)
}

// Data returns the clean table. orient=columns mirrors a column-keyed
// layout; the default is one object per row.
func (h *Handler) Data(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}

	rows := tableRows(r.Table)
	if c.Query("orient") == "columns" {
		cols := make(map[string]map[string]any, len(r.Table.Columns))
		for _, name := range r.Table.Columns {
			cols[name] = make(map[string]any, len(rows))
		}
		for i, row := range rows {
			for name, v := range row {
				cols[name][strconv.Itoa(i)] = v
			}
		}
		c.JSON(http.StatusOK, cols)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// DataXLSX returns the clean table as a spreadsheet download.
func (h *Handler) DataXLSX(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="Growth_dados.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := storage.WriteXLSX(c.Writer, r.Table); err != nil {
		h.logger.Error("[api] xlsx export failed: %v", err)
	}
}

// Summary returns null counts, describe and the text summary.
func (h *Handler) Summary(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":     r.Summary,
		"summary": h.insights.Generate(r.Table),
	})
}

func (h *Handler) Histogram(c *gin.Context) {
	bins := 0
	if raw := c.Query("bins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(c, apperrors.NewValidation("histogram", "bins must be a non-negative integer"), nil)
			return
		}
		bins = n
	}

	r, ok := h.load(c)
	if !ok {
		return
	}
	hist, err := h.insights.Histogram(r.Table, c.DefaultQuery("column", services.SummaryColumn), bins)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handler) BoxPlot(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}
	box, err := h.insights.BoxPlot(r.Table, c.DefaultQuery("column", services.SummaryColumn))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, box)
}

// Scatter needs exactly two numeric columns: ?columns=A&columns=B.
func (h *Handler) Scatter(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}
	sc, err := h.insights.Scatter(r.Table, c.QueryArray("columns"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// StartRun collects and normalizes synchronously.
func (h *Handler) StartRun(c *gin.Context) {
	r, err := h.data.Run(c.Request.Context())
	if err != nil {
		h.writeError(c, err, &r.Summary)
		return
	}
	c.JSON(http.StatusCreated, r.Summary)
}

func (h *Handler) LatestRun(c *gin.Context) {
	s, ok := h.data.LastRun()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no run yet", Code: "NO_RUN", Timestamp: time.Now()})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// tableRows renders records keyed by display column; a missing discount
// becomes null.
func tableRows(t models.CleanTable) []map[string]any {
	rows := make([]map[string]any, 0, len(t.Records))
	for _, r := range t.Records {
		row := make(map[string]any, len(t.Columns))
		for i, name := range t.Columns {
			switch i {
			case 0:
				row[name] = r.Product
			case 1:
				row[name] = r.Price
			case 2:
				if r.HasDiscount {
					row[name] = r.Discount
				} else {
					row[name] = nil
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}
