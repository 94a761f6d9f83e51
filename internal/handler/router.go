package handler

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Documents     *DocumentHandler
	Payments      *PaymentHandler
	Pages         *PageHandler
	Authenticator middleware.Authenticator
	CORSAllowlist []string
	OTPWindow     time.Duration
	WebDir        string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.CORSAllowlist))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	if deps.WebDir != "" {
		router.Static("/web", deps.WebDir)
	}
	router.GET("/", deps.Pages.Index)
	router.GET("/login", deps.Pages.Login)
	router.GET("/feature", deps.Pages.Feature)
	router.GET("/pricing", deps.Pages.Pricing)
	router.GET("/contactus", deps.Pages.ContactUs)
	router.GET("/mode/:n", deps.Pages.Mode)

	router.POST("/send-otp", middleware.RateLimit(deps.OTPWindow), deps.Auth.SendOTP)
	router.POST("/verify-otp", deps.Auth.VerifyOTP)
	// Logout answers both verbs so plain links work alongside fetch calls.
	router.GET("/logout", deps.Auth.Logout)
	router.POST("/logout", deps.Auth.Logout)

	authed := router.Group("")
	authed.Use(middleware.Auth(deps.Authenticator))
	authed.POST("/process", deps.Documents.Process)
	authed.GET("/progress/:job_id", deps.Documents.Progress)
	authed.GET("/download/:filename", deps.Documents.Download)
	authed.POST("/send-document/:job_id", deps.Documents.SendDocument)
	authed.POST("/create-payment", deps.Payments.CreateOrder)
	authed.POST("/verify-payment", deps.Payments.VerifyPayment)

	return router
}
