package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/middleware"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
	"github.com/akshardoc/akshardoc/internal/pkg/response"
)

func getEmail(c *gin.Context) string {
	return c.GetString(middleware.ContextEmailKey)
}

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, appErr.ErrInvalidCode):
		response.Error(c, http.StatusBadRequest, "invalid_code", "invalid verification code")
	case errors.Is(err, appErr.ErrExpiredCode):
		response.Error(c, http.StatusBadRequest, "expired_code", "verification code expired")
	case errors.Is(err, appErr.ErrInvalidFile):
		response.Error(c, http.StatusBadRequest, "invalid_file", "unsupported or unreadable file")
	case errors.Is(err, appErr.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrPaymentRequired):
		response.Error(c, http.StatusPaymentRequired, "payment_required", "payment required")
	case errors.Is(err, appErr.ErrSignatureMismatch):
		response.Error(c, http.StatusBadRequest, "signature_mismatch", "payment verification failed")
	case errors.Is(err, appErr.ErrJobNotReady):
		response.Error(c, http.StatusConflict, "job_not_ready", "job is not finished")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", "try again later")
	case errors.Is(err, appErr.ErrDelivery):
		response.Error(c, http.StatusBadGateway, "delivery_failed", "email delivery failed")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
