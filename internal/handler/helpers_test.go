package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

func TestHandleError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err    error
		status int
	}{
		{appErr.ErrUnauthorized, http.StatusUnauthorized},
		{appErr.ErrForbidden, http.StatusForbidden},
		{appErr.ErrNotFound, http.StatusNotFound},
		{appErr.ErrOrderNotFound, http.StatusNotFound},
		{appErr.ErrInvalid, http.StatusBadRequest},
		{appErr.ErrInvalidCode, http.StatusBadRequest},
		{appErr.ErrExpiredCode, http.StatusBadRequest},
		{appErr.ErrInvalidFile, http.StatusBadRequest},
		{appErr.ErrSignatureMismatch, http.StatusBadRequest},
		{appErr.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{appErr.ErrPaymentRequired, http.StatusPaymentRequired},
		{appErr.ErrJobNotReady, http.StatusConflict},
		{appErr.ErrConflict, http.StatusConflict},
		{appErr.ErrTooMany, http.StatusTooManyRequests},
		{appErr.ErrDelivery, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", appErr.ErrPaymentRequired), http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		handleError(c, tt.err)
		require.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestHandleError_NilWritesNothing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	handleError(c, nil)
	require.Empty(t, rec.Body.String())
}
