package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fastservices/gateway/internal/apperr"
	"github.com/fastservices/gateway/internal/guard"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

// RespondUnauthorized tells the browser its session is gone and where to go.
func RespondUnauthorized(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusUnauthorized, gin.H{
		"error": APIError{
			Code:      "unauthorized",
			Message:   message,
			RequestID: requestIDFrom(ctx),
		},
		"redirect": guard.LoginPath,
	})
}

// RespondAppError renders an error from the backend layer. Errors outside the
// taxonomy are logged and answered with the generic server message.
func RespondAppError(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.CannedMessage(kind)

	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	} else {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(), "request_id", requestIDFrom(ctx), "err", err)
	}

	if errors.Is(err, apperr.ErrUnauthorized) {
		RespondUnauthorized(ctx, msg)
		return
	}
	RespondError(ctx, apperr.StatusOf(kind), apperr.Code(err), msg, nil)
}
