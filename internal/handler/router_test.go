package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/akshardoc/akshardoc/internal/middleware"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if token == "valid" {
		return "reader@example.com", nil
	}
	return "", appErr.ErrUnauthorized
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	webDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o644))
	return NewRouter(RouterDeps{
		Auth:          NewAuthHandler(nil, time.Hour),
		Documents:     &DocumentHandler{},
		Payments:      &PaymentHandler{},
		Pages:         NewPageHandler(webDir),
		Authenticator: fakeAuthenticator{},
		OTPWindow:     time.Minute,
		WebDir:        webDir,
	})
}

func TestRouter_LogoutAnswersBothVerbs(t *testing.T) {
	router := newTestRouter(t)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/logout", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, method)

		cleared := false
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == middleware.SessionCookie && cookie.MaxAge < 0 {
				cleared = true
			}
		}
		require.True(t, cleared, method)
	}
}

func TestRouter_AuthedRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
