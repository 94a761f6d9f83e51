package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/model"
	"github.com/akshardoc/akshardoc/internal/pkg/response"
)

// PageHandler serves the static site pages from the web directory.
type PageHandler struct {
	dir string
}

func NewPageHandler(dir string) *PageHandler {
	return &PageHandler{dir: dir}
}

func (h *PageHandler) serve(name string) gin.HandlerFunc {
	path := filepath.Join(h.dir, name)
	return func(c *gin.Context) {
		c.File(path)
	}
}

func (h *PageHandler) Index(c *gin.Context)     { h.serve("index.html")(c) }
func (h *PageHandler) Login(c *gin.Context)     { h.serve("login.html")(c) }
func (h *PageHandler) Feature(c *gin.Context)   { h.serve("feature.html")(c) }
func (h *PageHandler) Pricing(c *gin.Context)   { h.serve("pricing.html")(c) }
func (h *PageHandler) ContactUs(c *gin.Context) { h.serve("contactus.html")(c) }

// Mode serves the upload page for mode 1, 2 or 3.
func (h *PageHandler) Mode(c *gin.Context) {
	if _, ok := model.ModeFromNumber(c.Param("n")); !ok {
		response.Error(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	c.File(filepath.Join(h.dir, "mode"+c.Param("n")+".html"))
}
