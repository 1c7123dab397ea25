package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagedrop/models"
	"github.com/use-agent/pagedrop/process"
)

// FailureMessage is the message of every failed submission.
const FailureMessage = "Failed to process HTML content"

// ProcessRaw returns a handler for POST / and POST /api. The body is the
// captured markup itself; ?profile= picks the extraction profile.
func ProcessRaw(proc *process.Processor, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes))
		if err != nil {
			respondReadError(c, err)
			return
		}
		run(c, proc, string(body), c.Query("profile"))
	}
}

// ProcessJSON returns a handler for POST /api/process_html, which takes
// {"html": "...", "profile": "..."}.
func ProcessJSON(proc *process.Processor, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		var req models.ProcessHTMLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondReadError(c, err)
			return
		}
		run(c, proc, req.HTML, req.Profile)
	}
}

func run(c *gin.Context, proc *process.Processor, html, profile string) {
	resp, err := proc.Process(c.Request.Context(), html, profile)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func respondReadError(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		respondError(c, http.StatusRequestEntityTooLarge,
			models.NewProcessError(models.ErrCodeInvalidInput, "document too large", nil))
		return
	}
	respondError(c, http.StatusBadRequest, models.NewProcessError(models.ErrCodeInvalidInput, "invalid request body", err))
}

// respondError writes the failure body. Errors that are not a
// *models.ProcessError are reported as internal.
func respondError(c *gin.Context, status int, err error) {
	var pe *models.ProcessError
	if !errors.As(err, &pe) {
		pe = models.NewProcessError(models.ErrCodeInternal, "processing failed", err)
	}
	slog.Warn("submission rejected", "code", pe.Code, "status", status, "error", err)
	c.JSON(status, models.BackendResponse{Message: FailureMessage, Error: pe.ToDetail()})
}
