package model

// OTPCode stores a bcrypt hash of the emailed login code. Only the most
// recent code per email is consulted during verification, so a re-request
// supersedes any outstanding code.
type OTPCode struct {
	ID        string `bson:"_id" json:"id"`
	Email     string `bson:"email" json:"email"`
	CodeHash  string `bson:"code_hash" json:"code_hash"`
	Used      int    `bson:"used" json:"used"`
	Ctime     int64  `bson:"ctime" json:"ctime"`
	ExpiresAt int64  `bson:"expires_at" json:"expires_at"`
}
