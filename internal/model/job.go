package model

// Job statuses. Transitions only move forward:
// pending -> running -> done | failed.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

type Job struct {
	ID             string `bson:"_id" json:"id"`
	Email          string `bson:"email" json:"email"`
	Mode           string `bson:"mode" json:"mode"`
	TargetLanguage string `bson:"target_language,omitempty" json:"target_language,omitempty"`
	Language       string `bson:"language,omitempty" json:"language,omitempty"`
	FileName       string `bson:"file_name" json:"file_name"`
	TotalPages     int    `bson:"total_pages" json:"total_pages"`
	PagesDone      int    `bson:"pages_done" json:"pages_done"`
	Status         string `bson:"status" json:"status"`
	OutputKey      string `bson:"output_key,omitempty" json:"output_key,omitempty"`
	Error          string `bson:"error,omitempty" json:"error,omitempty"`
	Ctime          int64  `bson:"ctime" json:"ctime"`
	Mtime          int64  `bson:"mtime" json:"mtime"`
}
