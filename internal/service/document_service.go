package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akshardoc/akshardoc/internal/document"
	"github.com/akshardoc/akshardoc/internal/filestore"
	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
	"github.com/akshardoc/akshardoc/internal/pkg/logutil"
	"github.com/akshardoc/akshardoc/internal/pkg/timeutil"
	"github.com/akshardoc/akshardoc/internal/processor"
)

const (
	processorAttempts  = 3
	processorRetryBase = time.Second

	resultCacheSize = 512
	resultCacheTTL  = time.Hour
)

type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	GetOwned(ctx context.Context, email, id string) (*model.Job, error)
	UpdateStatus(ctx context.Context, id, from, to string, now int64) error
	IncPagesDone(ctx context.Context, id string, now int64) error
	Complete(ctx context.Context, id, outputKey string, now int64) error
	Fail(ctx context.Context, id, reason string, now int64) error
}

// Authorizer spends free or paid page balance before any paid work starts.
type Authorizer interface {
	Authorize(ctx context.Context, email, mode string, pages int) error
}

type DocumentService struct {
	jobs       JobStore
	authorizer Authorizer
	procs      map[string]processor.Processor
	store      filestore.Store
	sender     EmailSender

	workers int
	cache   *expirable.LRU[string, string]

	now func() int64
}

func NewDocumentService(jobs JobStore, authorizer Authorizer, procs map[string]processor.Processor,
	store filestore.Store, sender EmailSender, workers int) *DocumentService {

	if workers <= 0 {
		workers = 1
	}
	return &DocumentService{
		jobs:       jobs,
		authorizer: authorizer,
		procs:      procs,
		store:      store,
		sender:     sender,
		workers:    workers,
		cache:      expirable.NewLRU[string, string](resultCacheSize, nil, resultCacheTTL),
		now:        timeutil.NowUnix,
	}
}

type SubmitParams struct {
	Email          string
	Mode           string
	TargetLanguage string
	Language       string
	FilePath       string
	FileName       string
}

// Submit splits the upload into pages, spends quota for them, records the job
// and kicks off processing in the background. The returned job is in the
// pending state; callers poll Progress for the rest.
func (s *DocumentService) Submit(ctx context.Context, params SubmitParams) (*model.Job, error) {
	if !model.ValidMode(params.Mode) {
		return nil, fmt.Errorf("%w: unknown mode %q", appErr.ErrInvalid, params.Mode)
	}
	if params.Mode == model.ModeTranslate && strings.TrimSpace(params.TargetLanguage) == "" {
		return nil, fmt.Errorf("%w: target language is required for translation", appErr.ErrInvalid)
	}
	if !document.SupportedExt(params.FileName) {
		return nil, appErr.ErrInvalidFile
	}

	pages, err := document.Split(params.FilePath, params.FileName)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, appErr.ErrInvalidFile
	}

	if err := s.authorizer.Authorize(ctx, params.Email, params.Mode, len(pages)); err != nil {
		return nil, err
	}

	now := s.now()
	job := &model.Job{
		ID:             newID(),
		Email:          params.Email,
		Mode:           params.Mode,
		TargetLanguage: params.TargetLanguage,
		Language:       params.Language,
		FileName:       params.FileName,
		TotalPages:     len(pages),
		Status:         model.JobStatusPending,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("job accepted",
		zap.String("job_id", job.ID), zap.String("email", job.Email),
		zap.String("mode", job.Mode), zap.Int("pages", job.TotalPages))

	// The request context dies with the HTTP request; the job must not.
	go s.run(context.WithoutCancel(ctx), job, pages)
	return job, nil
}

// run drives the page workers and finalizes the job. Pages are processed in
// parallel but the output preserves document order; any page failure fails
// the whole job so a paid run never yields a silently incomplete document.
func (s *DocumentService) run(ctx context.Context, job *model.Job, pages []document.Page) {
	logger := logutil.GetLogger(ctx).With(zap.String("job_id", job.ID))
	if err := s.jobs.UpdateStatus(ctx, job.ID, model.JobStatusPending, model.JobStatusRunning, s.now()); err != nil {
		logger.Error("start job failed", zap.Error(err))
		return
	}

	results := make([]string, len(pages))
	eg, groupCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for _, page := range pages {
		page := page
		eg.Go(func() error {
			text, err := s.processPage(groupCtx, job, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.Index+1, err)
			}
			results[page.Index] = text
			if err := s.jobs.IncPagesDone(groupCtx, job.ID, s.now()); err != nil {
				logger.Warn("progress update failed", zap.Int("page", page.Index+1), zap.Error(err))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Error("job failed", zap.Error(err))
		if ferr := s.jobs.Fail(ctx, job.ID, err.Error(), s.now()); ferr != nil {
			logger.Error("mark job failed", zap.Error(ferr))
		}
		return
	}

	output := strings.Join(results, "\n\n")
	key := outputKey(job.ID)
	if err := s.store.Save(ctx, key, strings.NewReader(output), int64(len(output))); err != nil {
		logger.Error("save output failed", zap.Error(err))
		if ferr := s.jobs.Fail(ctx, job.ID, "store output: "+err.Error(), s.now()); ferr != nil {
			logger.Error("mark job failed", zap.Error(ferr))
		}
		return
	}
	if err := s.jobs.Complete(ctx, job.ID, key, s.now()); err != nil {
		logger.Error("complete job failed", zap.Error(err))
		return
	}
	logger.Info("job done", zap.Int("pages", len(pages)))
}

// processPage turns one page into output text. PDF pages go through vision
// extraction first; text modes then run the mode's processor on the extracted
// text, with identical inputs served from cache.
func (s *DocumentService) processPage(ctx context.Context, job *model.Job, page document.Page) (string, error) {
	unit := processor.Unit{
		Index:          page.Index,
		Text:           page.Text,
		PDF:            page.PDF,
		Language:       job.Language,
		TargetLanguage: job.TargetLanguage,
	}

	if len(unit.PDF) > 0 {
		ocr := s.procs[model.ModeOCR]
		if ocr == nil {
			return "", fmt.Errorf("%w: ocr processor not configured", appErr.ErrInternal)
		}
		text, err := processor.Retry(ctx, processorAttempts, processorRetryBase, func() (string, error) {
			return ocr.Process(ctx, unit)
		})
		if err != nil {
			return "", err
		}
		unit.Text = text
		unit.PDF = nil
	}
	if job.Mode == model.ModeOCR {
		return unit.Text, nil
	}

	proc := s.procs[job.Mode]
	if proc == nil {
		return "", fmt.Errorf("%w: %s processor not configured", appErr.ErrInternal, job.Mode)
	}
	cacheKey := resultKey(job.Mode, job.TargetLanguage, unit.Text)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}
	text, err := processor.Retry(ctx, processorAttempts, processorRetryBase, func() (string, error) {
		return proc.Process(ctx, unit)
	})
	if err != nil {
		return "", err
	}
	s.cache.Add(cacheKey, text)
	return text, nil
}

type Progress struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	PagesDone  int    `json:"pages_done"`
	TotalPages int    `json:"total_pages"`
	Percentage int    `json:"percentage"`
	Error      string `json:"error,omitempty"`
}

func (s *DocumentService) Progress(ctx context.Context, email, jobID string) (*Progress, error) {
	job, err := s.jobs.GetOwned(ctx, email, jobID)
	if err != nil {
		return nil, err
	}
	percentage := 0
	if job.TotalPages > 0 {
		percentage = job.PagesDone * 100 / job.TotalPages
	}
	if job.Status == model.JobStatusDone {
		percentage = 100
	}
	return &Progress{
		JobID:      job.ID,
		Status:     job.Status,
		PagesDone:  job.PagesDone,
		TotalPages: job.TotalPages,
		Percentage: percentage,
		Error:      job.Error,
	}, nil
}

// Output opens the finished artifact for an owned, completed job.
func (s *DocumentService) Output(ctx context.Context, email, jobID string) (io.ReadCloser, *model.Job, error) {
	job, err := s.jobs.GetOwned(ctx, email, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != model.JobStatusDone || job.OutputKey == "" {
		return nil, nil, appErr.ErrJobNotReady
	}
	reader, err := s.store.Open(ctx, job.OutputKey)
	if err != nil {
		return nil, nil, err
	}
	return reader, job, nil
}

// DownloadByName resolves a download filename of the form <job_id>.txt.
func (s *DocumentService) DownloadByName(ctx context.Context, email, filename string) (io.ReadCloser, *model.Job, error) {
	jobID := strings.TrimSuffix(filename, ".txt")
	if jobID == filename || jobID == "" {
		return nil, nil, appErr.ErrNotFound
	}
	return s.Output(ctx, email, jobID)
}

// Deliver mails the finished document to its owner as an attachment.
func (s *DocumentService) Deliver(ctx context.Context, email, jobID string) error {
	reader, job, err := s.Output(ctx, email, jobID)
	if err != nil {
		return err
	}
	defer reader.Close()

	subject := fmt.Sprintf("Your processed document: %s", job.FileName)
	body := fmt.Sprintf("The %s run for %s has finished. The result is attached.", job.Mode, job.FileName)
	if err := s.sender.SendWithAttachment(ctx, email, subject, body, outputKey(job.ID), reader); err != nil {
		logutil.GetLogger(ctx).Error("deliver output failed",
			zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}

// CleanupUpload removes the temp file behind a submission. Missing files are
// fine: the upload may already have been reaped.
func CleanupUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logutil.GetLogger(context.Background()).Warn("remove upload failed",
			zap.String("path", path), zap.Error(err))
	}
}

func outputKey(jobID string) string {
	return jobID + ".txt"
}

func resultKey(mode, target, text string) string {
	sum := sha256.Sum256([]byte(mode + "|" + target + "|" + text))
	return hex.EncodeToString(sum[:])
}
