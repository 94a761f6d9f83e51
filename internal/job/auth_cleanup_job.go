package job

import (
	"context"
	"time"

	"github.com/akshardoc/akshardoc/internal/repo"
)

// AuthCleanupJob drops expired verification codes and sessions. Expiry is
// already enforced on every read; this keeps the collections from growing.
type AuthCleanupJob struct {
	otps     *repo.OTPRepo
	sessions *repo.SessionRepo
}

func NewAuthCleanupJob(otps *repo.OTPRepo, sessions *repo.SessionRepo) *AuthCleanupJob {
	return &AuthCleanupJob{otps: otps, sessions: sessions}
}

func (j *AuthCleanupJob) Name() string {
	return "auth_cleanup"
}

func (j *AuthCleanupJob) Run(ctx context.Context) error {
	if j.otps == nil || j.sessions == nil {
		return nil
	}
	now := time.Now().Unix()
	if _, err := j.otps.DeleteExpiredBefore(ctx, now); err != nil {
		return err
	}
	_, err := j.sessions.DeleteExpiredBefore(ctx, now)
	return err
}
