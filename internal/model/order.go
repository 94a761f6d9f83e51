package model

const (
	OrderStatusCreated  = "created"
	OrderStatusVerified = "verified"
	OrderStatusFailed   = "failed"
)

// PaymentOrder records a Razorpay order for the chargeable share of a
// submission. Verifying an order credits the user's paid page balance
// exactly once; jobs then spend from that balance.
type PaymentOrder struct {
	OrderID     string `bson:"_id" json:"order_id"`
	Email       string `bson:"email" json:"email"`
	Mode        string `bson:"mode" json:"mode"`
	Pages       int    `bson:"pages" json:"pages"`
	AmountPaise int64  `bson:"amount_paise" json:"amount_paise"`
	Status      string `bson:"status" json:"status"`
	Ctime       int64  `bson:"ctime" json:"ctime"`
	Mtime       int64  `bson:"mtime" json:"mtime"`
}
