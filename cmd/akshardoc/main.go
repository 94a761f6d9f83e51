package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akshardoc/akshardoc/internal/config"
	"github.com/akshardoc/akshardoc/internal/filestore"
	"github.com/akshardoc/akshardoc/internal/handler"
	"github.com/akshardoc/akshardoc/internal/job"
	"github.com/akshardoc/akshardoc/internal/model"
	"github.com/akshardoc/akshardoc/internal/pkg/logutil"
	"github.com/akshardoc/akshardoc/internal/processor"
	"github.com/akshardoc/akshardoc/internal/repo"
	"github.com/akshardoc/akshardoc/internal/schedule"
	"github.com/akshardoc/akshardoc/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "akshardoc",
		Short: "akshardoc document processing server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run akshardoc server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logutil.Init(cfg.LogLevel)
			return runServer(cfg)
		},
	}

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logutil.GetLogger(ctx)
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("gemini_model", cfg.GeminiModel),
	)

	db, err := repo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("open mongo: %w", err)
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()
	if err := repo.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	userRepo := repo.NewUserRepo(db)
	otpRepo := repo.NewOTPRepo(db)
	sessionRepo := repo.NewSessionRepo(db)
	jobRepo := repo.NewJobRepo(db)
	orderRepo := repo.NewOrderRepo(db)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	procs, err := buildProcessors(cfg)
	if err != nil {
		return fmt.Errorf("init processors: %w", err)
	}

	mailSender := service.NewEmailSender(cfg.Mail)
	sessionTTL := time.Hour * time.Duration(cfg.SessionTTLHours)
	authService := service.NewAuthService(otpRepo, sessionRepo, userRepo, mailSender,
		cfg.SessionSecret, sessionTTL, cfg.FreeTrialPages)
	gateway := service.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	paymentService := service.NewPaymentService(orderRepo, userRepo, gateway,
		cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.PricePerPage)
	documentService := service.NewDocumentService(jobRepo, paymentService, procs,
		store, mailSender, cfg.WorkerCount)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService, sessionTTL),
		Documents:     handler.NewDocumentHandler(documentService, cfg.MaxUploadBytes, cfg.UploadDir),
		Payments:      handler.NewPaymentHandler(paymentService),
		Pages:         handler.NewPageHandler(cfg.WebDir),
		Authenticator: authService,
		OTPWindow:     time.Minute,
		WebDir:        cfg.WebDir,
	})

	scheduler := schedule.NewCronScheduler()
	reaper := job.NewJobReaper(jobRepo, store,
		time.Minute*time.Duration(cfg.JobStallMinutes),
		time.Hour*time.Duration(cfg.JobRetentionHours))
	if err := scheduler.AddJob(reaper, "*/10 * * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewAuthCleanupJob(otpRepo, sessionRepo), "0 * * * *"); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildProcessors(cfg *config.Config) (map[string]processor.Processor, error) {
	geminiArgs := map[string]interface{}{
		"api_key": cfg.GeminiAPIKey,
		"model":   cfg.GeminiModel,
	}
	procs := make(map[string]processor.Processor, 3)
	for _, name := range []string{model.ModeProofread, model.ModeTranslate} {
		proc, err := processor.New(name, geminiArgs)
		if err != nil {
			return nil, err
		}
		procs[name] = proc
	}
	ocr, err := processor.New(model.ModeOCR, map[string]interface{}{
		"api_key": cfg.VisionAPIKey,
	})
	if err != nil {
		return nil, err
	}
	procs[model.ModeOCR] = ocr
	return procs, nil
}
