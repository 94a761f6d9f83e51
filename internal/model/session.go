package model

// Session backs a login cookie. The ID doubles as the JWT jti claim;
// logout deletes the record which invalidates the cookie immediately.
type Session struct {
	ID        string `bson:"_id" json:"id"`
	Email     string `bson:"email" json:"email"`
	Ctime     int64  `bson:"ctime" json:"ctime"`
	ExpiresAt int64  `bson:"expires_at" json:"expires_at"`
}
