package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"goconcord/domain/core"
	"goconcord/domain/stats"
	"goconcord/internal"
	"goconcord/internal/errors"
	"goconcord/internal/report"
	"goconcord/ports"
)

// Runner produces a fresh validation report
type Runner interface {
	Run(ctx context.Context) (*report.Report, error)
}

// ReportHandler serves validation reports and on-demand C-index computation
type ReportHandler struct {
	store  ports.ReportStore
	runner Runner
	logger *internal.Logger
}

// NewReportHandler creates a new report handler. runner may be nil, in which
// case new runs cannot be triggered over HTTP.
func NewReportHandler(store ports.ReportStore, runner Runner, logger *internal.Logger) *ReportHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ReportHandler{store: store, runner: runner, logger: logger.With("API")}
}

// statusFor maps error codes onto HTTP statuses
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeShapeMismatch, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeDegenerateInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *ReportHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

// Health reports liveness
func (h *ReportHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetLatestReport returns the most recent run as JSON
func (h *ReportHandler) GetLatestReport(c *gin.Context) {
	r, err := h.store.Latest(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetReport returns one run as JSON
func (h *ReportHandler) GetReport(c *gin.Context) {
	runID, err := core.ParseRunID(c.Param("runId"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	r, err := h.store.Get(c.Request.Context(), runID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetReportPage renders the most recent run as an HTML page
func (h *ReportHandler) GetReportPage(c *gin.Context) {
	r, err := h.store.Latest(c.Request.Context())
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte("no validation runs recorded yet\n"))
			return
		}
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.RenderHTML(r))
}

// CreateRun executes a validation run and stores it
func (h *ReportHandler) CreateRun(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "runs cannot be triggered on this server"})
		return
	}
	r, err := h.runner.Run(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.Save(c.Request.Context(), r); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("run %s stored (passed=%t)", r.RunID, r.Passed())
	c.JSON(http.StatusCreated, r)
}

// CIndexRequest is the body of POST /api/cindex
type CIndexRequest struct {
	YTrue []float64 `json:"y_true" binding:"required"`
	YPred []float64 `json:"y_pred" binding:"required"`
}

// CIndexResponse carries the statistic and its pair breakdown
type CIndexResponse struct {
	CIndex     float64 `json:"c_index"`
	Concordant int     `json:"concordant"`
	Discordant int     `json:"discordant"`
	TiedTruth  int     `json:"tied_truth"`
	Comparable int     `json:"comparable"`
}

// ComputeCIndex scores a prediction vector against its truth
func (h *ReportHandler) ComputeCIndex(c *gin.Context) {
	var req CIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	counts, err := stats.Concordance(req.YTrue, req.YPred)
	if err != nil {
		h.fail(c, err)
		return
	}
	ci, err := counts.CIndex()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, CIndexResponse{
		CIndex:     ci,
		Concordant: counts.Concordant,
		Discordant: counts.Discordant,
		TiedTruth:  counts.TiedTruth,
		Comparable: counts.Comparable(),
	})
}
