package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devclub/formsheets/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	msgProcessed    = "response processed successfully"
	msgDuplicate    = "delivery already processed"
	msgBadRequest   = "invalid request format"
	msgUnauthorized = "invalid signature"
	msgInternal     = "failed to process request"
)

// Processor is implemented by Orchestrator.
type Processor interface {
	Process(ctx context.Context, r *http.Request) (Result, error)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register mounts the webhook handler at path.
//
// @Summary Receive a Typeform submission
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any "Processed or duplicate"
// @Failure 400 {object} map[string]any "Invalid or oversized payload"
// @Failure 401 {object} map[string]any "Signature verification failed"
// @Failure 500 {object} map[string]any "Processing failed"
// @Router /webhook [post]
func Register(r gin.IRoutes, path string, p Processor) {
	r.POST(path, func(c *gin.Context) {
		res, err := p.Process(c.Request.Context(), c.Request)
		if err != nil {
			writeError(c, res, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"message":   msgProcessed,
			"data":      res.Data,
			"timestamp": timestamp(),
		})
	})
}

func writeError(c *gin.Context, res Result, err error) {
	switch {
	case errors.Is(err, ErrDuplicate):
		c.JSON(http.StatusOK, gin.H{"status": "duplicate", "message": msgDuplicate, "timestamp": timestamp()})
	case errors.Is(err, ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgBadRequest, "timestamp": timestamp()})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": msgUnauthorized, "timestamp": timestamp()})
	default:
		logger.FromContext(c.Request.Context()).Error("webhook processing failed", "error", err, "status", res.Status)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgInternal, "timestamp": timestamp()})
	}
}
