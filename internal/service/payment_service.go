package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
	"github.com/akshardoc/akshardoc/internal/pkg/logutil"
	"github.com/akshardoc/akshardoc/internal/pkg/timeutil"
)

type OrderStore interface {
	Create(ctx context.Context, order *model.PaymentOrder) error
	Get(ctx context.Context, orderID string) (*model.PaymentOrder, error)
	MarkVerified(ctx context.Context, orderID, email string, now int64) error
	MarkFailed(ctx context.Context, orderID, email string, now int64) error
}

type QuotaStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SpendPages(ctx context.Context, email, mode string, freeN, paidN int, now int64) error
	AddPaidPages(ctx context.Context, email, mode string, n int, now int64) error
}

// GatewayClient creates orders at the payment gateway. The live implementation
// talks to Razorpay; tests substitute a fake.
type GatewayClient interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]interface{}) (string, error)
}

type razorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) GatewayClient {
	return &razorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
		"notes":    notes,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("create razorpay order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok {
		return "", fmt.Errorf("razorpay order response missing id")
	}
	return id, nil
}

type PaymentService struct {
	orders  OrderStore
	quotas  QuotaStore
	gateway GatewayClient

	keyID        string
	keySecret    string
	pricePerPage int64

	now func() int64
}

func NewPaymentService(orders OrderStore, quotas QuotaStore, gateway GatewayClient,
	keyID, keySecret string, pricePerPage int64) *PaymentService {

	return &PaymentService{
		orders:       orders,
		quotas:       quotas,
		gateway:      gateway,
		keyID:        keyID,
		keySecret:    keySecret,
		pricePerPage: pricePerPage,
		now:          timeutil.NowUnix,
	}
}

// Order is what the checkout page needs to open the payment widget.
type Order struct {
	OrderID     string `json:"order_id"`
	KeyID       string `json:"key_id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Pages       int    `json:"pages"`
	FreePages   int    `json:"free_pages"`
	PaidPages   int    `json:"paid_pages"`
}

// CreateOrder prices a run of pages for a mode, netting out the free quota
// and any paid balance left over from earlier payments. When those cover
// everything no gateway order is made and the returned Order has an empty
// OrderID.
func (s *PaymentService) CreateOrder(ctx context.Context, email, mode string, pages int) (*Order, error) {
	if !model.ValidMode(mode) {
		return nil, fmt.Errorf("%w: unknown mode %q", appErr.ErrInvalid, mode)
	}
	if pages <= 0 {
		return nil, fmt.Errorf("%w: pages must be positive", appErr.ErrInvalid)
	}

	free, paid := 0, 0
	user, err := s.quotas.GetByEmail(ctx, email)
	if err != nil && !appErr.IsNotFound(err) {
		return nil, err
	}
	if user != nil {
		free = user.FreePages[mode]
		paid = user.PaidPages[mode]
	}
	if free > pages {
		free = pages
	}
	if paid > pages-free {
		paid = pages - free
	}
	chargeable := pages - free - paid
	if chargeable <= 0 {
		return &Order{Pages: pages, FreePages: free, PaidPages: paid, Currency: "INR"}, nil
	}

	now := s.now()
	amount := int64(chargeable) * s.pricePerPage
	receipt := fmt.Sprintf("doc-%s", newID()[:12])
	orderID, err := s.gateway.CreateOrder(ctx, amount, receipt, map[string]interface{}{
		"email": email,
		"mode":  mode,
		"pages": chargeable,
	})
	if err != nil {
		return nil, err
	}
	record := &model.PaymentOrder{
		OrderID:     orderID,
		Email:       email,
		Mode:        mode,
		Pages:       chargeable,
		AmountPaise: amount,
		Status:      model.OrderStatusCreated,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.orders.Create(ctx, record); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("payment order created",
		zap.String("order_id", orderID), zap.String("email", email),
		zap.String("mode", mode), zap.Int64("amount_paise", amount))
	return &Order{
		OrderID:     orderID,
		KeyID:       s.keyID,
		AmountPaise: amount,
		Currency:    "INR",
		Pages:       pages,
		FreePages:   free,
		PaidPages:   paid,
	}, nil
}

// VerifyPayment checks the checkout callback signature against the order and
// credits the purchased pages. A bad signature marks the order failed.
func (s *PaymentService) VerifyPayment(ctx context.Context, email, orderID, paymentID, signature string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil || order.Email != email {
		return appErr.ErrOrderNotFound
	}
	now := s.now()
	if !s.signatureValid(orderID, paymentID, signature) {
		if err := s.orders.MarkFailed(ctx, orderID, email, now); err != nil && !appErr.IsConflict(err) {
			return err
		}
		logutil.GetLogger(ctx).Warn("payment signature mismatch",
			zap.String("order_id", orderID), zap.String("email", email))
		return appErr.ErrSignatureMismatch
	}
	if err := s.orders.MarkVerified(ctx, orderID, email, now); err != nil {
		if appErr.IsConflict(err) {
			// Already verified or failed. Verification is not retryable.
			return appErr.ErrConflict
		}
		return err
	}
	return s.quotas.AddPaidPages(ctx, email, order.Mode, order.Pages, now)
}

// authorizeAttempts bounds the recompute loop when balances move underneath
// an authorization.
const authorizeAttempts = 3

// Authorize spends quota for a job of the given size, ahead of any paid
// work. Free pages cover as much as they can; the rest comes off the paid
// balance credited by verified payments. Both balances are spent in one
// guarded update on the user document, so a losing race burns nothing and
// the split is recomputed from fresh balances.
func (s *PaymentService) Authorize(ctx context.Context, email, mode string, pages int) error {
	if pages <= 0 {
		return fmt.Errorf("%w: pages must be positive", appErr.ErrInvalid)
	}
	for attempt := 0; attempt < authorizeAttempts; attempt++ {
		user, err := s.quotas.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		free := user.FreePages[mode]
		if free > pages {
			free = pages
		}
		paid := pages - free
		if paid > user.PaidPages[mode] {
			return appErr.ErrPaymentRequired
		}
		err = s.quotas.SpendPages(ctx, email, mode, free, paid, s.now())
		if err == nil {
			return nil
		}
		if !appErr.IsConflict(err) {
			return err
		}
	}
	return appErr.ErrPaymentRequired
}

func (s *PaymentService) signatureValid(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
