package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/huddle/internal/service"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
)

const (
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeValidation   = "VALIDATION_ERROR"
	codeInvalidState = "INVALID_STATE"
	codeInternal     = "INTERNAL_SERVER_ERROR"
)

// statusOf maps a service error class onto an HTTP status and envelope code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, codeInvalidState
	}
	return http.StatusInternalServerError, codeInternal
}

func writeError(ctx *gin.Context, log *slog.Logger, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.FullPath()),
			sl.Err(err),
		)
		msg = "internal server error"
	}
	ctx.AbortWithStatusJSON(status, gin.H{"code": code, "msg": msg})
}

func badRequest(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": codeValidation, "msg": msg})
}
