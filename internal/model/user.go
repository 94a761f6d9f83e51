package model

// User is created on first successful OTP verification. FreePages and
// PaidPages are keyed by processing mode; free pages are consumed before
// paid ones when a job is authorized.
type User struct {
	Email     string         `bson:"_id" json:"email"`
	FreePages map[string]int `bson:"free_pages" json:"free_pages"`
	PaidPages map[string]int `bson:"paid_pages" json:"paid_pages"`
	Ctime     int64          `bson:"ctime" json:"ctime"`
	Mtime     int64          `bson:"mtime" json:"mtime"`
}
