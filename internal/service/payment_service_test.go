package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akshardoc/akshardoc/internal/model"
	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

type fakeOrderStore struct {
	orders map[string]*model.PaymentOrder
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*model.PaymentOrder)}
}

func (f *fakeOrderStore) Create(_ context.Context, order *model.PaymentOrder) error {
	if _, ok := f.orders[order.OrderID]; ok {
		return appErr.ErrConflict
	}
	f.orders[order.OrderID] = order
	return nil
}

func (f *fakeOrderStore) Get(_ context.Context, orderID string) (*model.PaymentOrder, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) MarkVerified(_ context.Context, orderID, email string, now int64) error {
	return f.transition(orderID, email, model.OrderStatusCreated, model.OrderStatusVerified, now)
}

func (f *fakeOrderStore) MarkFailed(_ context.Context, orderID, email string, now int64) error {
	return f.transition(orderID, email, model.OrderStatusCreated, model.OrderStatusFailed, now)
}

func (f *fakeOrderStore) transition(orderID, email, from, to string, now int64) error {
	order, ok := f.orders[orderID]
	if !ok || order.Email != email || order.Status != from {
		return appErr.ErrConflict
	}
	order.Status = to
	order.Mtime = now
	return nil
}

type fakeQuotaStore struct {
	free map[string]map[string]int
	paid map[string]map[string]int

	// beforeSpend runs at the top of SpendPages so tests can move balances
	// between the service's read and its guarded spend.
	beforeSpend func()
}

func newFakeQuotaStore() *fakeQuotaStore {
	return &fakeQuotaStore{
		free: make(map[string]map[string]int),
		paid: make(map[string]map[string]int),
	}
}

func (f *fakeQuotaStore) setFree(email, mode string, n int) {
	if f.free[email] == nil {
		f.free[email] = make(map[string]int)
	}
	f.free[email][mode] = n
}

func (f *fakeQuotaStore) setPaid(email, mode string, n int) {
	if f.paid[email] == nil {
		f.paid[email] = make(map[string]int)
	}
	f.paid[email][mode] = n
}

func (f *fakeQuotaStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	free, ok := f.free[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &model.User{Email: email, FreePages: free, PaidPages: f.paid[email]}, nil
}

func (f *fakeQuotaStore) SpendPages(_ context.Context, email, mode string, freeN, paidN int, _ int64) error {
	if f.beforeSpend != nil {
		f.beforeSpend()
	}
	if freeN == 0 && paidN == 0 {
		return nil
	}
	if freeN > 0 && (f.free[email] == nil || f.free[email][mode] < freeN) {
		return appErr.ErrConflict
	}
	if paidN > 0 && (f.paid[email] == nil || f.paid[email][mode] < paidN) {
		return appErr.ErrConflict
	}
	if freeN > 0 {
		f.free[email][mode] -= freeN
	}
	if paidN > 0 {
		f.paid[email][mode] -= paidN
	}
	return nil
}

func (f *fakeQuotaStore) AddPaidPages(_ context.Context, email, mode string, n int, _ int64) error {
	if f.paid[email] == nil {
		f.paid[email] = make(map[string]int)
	}
	f.paid[email][mode] += n
	return nil
}

type fakeGateway struct {
	orders  int
	lastAmt int64
	err     error
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, _ string, _ map[string]interface{}) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.orders++
	f.lastAmt = amountPaise
	return fmt.Sprintf("order_%d", f.orders), nil
}

func newTestPayments(t *testing.T) (*PaymentService, *fakeOrderStore, *fakeQuotaStore, *fakeGateway) {
	t.Helper()
	orders := newFakeOrderStore()
	quotas := newFakeQuotaStore()
	gateway := &fakeGateway{}
	payments := NewPaymentService(orders, quotas, gateway, "key_id", "key_secret", 1000)
	return payments, orders, quotas, gateway
}

func signOrder(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrder_ChargesOnlyBeyondFreeQuota(t *testing.T) {
	payments, orders, quotas, gateway := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeProofread, 3)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeProofread, 5)
	require.NoError(t, err)
	require.Equal(t, 3, order.FreePages)
	require.Equal(t, int64(2000), order.AmountPaise)
	require.Equal(t, int64(2000), gateway.lastAmt)
	require.Len(t, orders.orders, 1)

	stored := orders.orders[order.OrderID]
	require.Equal(t, 2, stored.Pages)
	require.Equal(t, model.OrderStatusCreated, stored.Status)
}

func TestCreateOrder_FreeQuotaCoversEverything(t *testing.T) {
	payments, orders, quotas, gateway := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeOCR, 5)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeOCR, 4)
	require.NoError(t, err)
	require.Empty(t, order.OrderID)
	require.Equal(t, 4, order.FreePages)
	require.Zero(t, gateway.orders)
	require.Empty(t, orders.orders)
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	payments, _, _, _ := newTestPayments(t)
	_, err := payments.CreateOrder(context.Background(), "reader@example.com", "summarize", 3)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = payments.CreateOrder(context.Background(), "reader@example.com", model.ModeOCR, 0)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestVerifyPayment_ValidSignatureCreditsPages(t *testing.T) {
	payments, orders, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeTranslate, 0)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeTranslate, 2)
	require.NoError(t, err)

	sig := signOrder("key_secret", order.OrderID, "pay_1")
	require.NoError(t, payments.VerifyPayment(context.Background(), "reader@example.com", order.OrderID, "pay_1", sig))
	require.Equal(t, model.OrderStatusVerified, orders.orders[order.OrderID].Status)
	require.Equal(t, 2, quotas.paid["reader@example.com"][model.ModeTranslate])
}

func TestVerifyPayment_TamperedSignatureFailsOrder(t *testing.T) {
	payments, orders, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeTranslate, 0)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeTranslate, 2)
	require.NoError(t, err)

	err = payments.VerifyPayment(context.Background(), "reader@example.com", order.OrderID, "pay_1", "deadbeef")
	require.ErrorIs(t, err, appErr.ErrSignatureMismatch)
	require.Equal(t, model.OrderStatusFailed, orders.orders[order.OrderID].Status)
	require.Zero(t, quotas.paid["reader@example.com"][model.ModeTranslate])
}

func TestVerifyPayment_WrongOwner(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeTranslate, 0)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeTranslate, 2)
	require.NoError(t, err)

	sig := signOrder("key_secret", order.OrderID, "pay_1")
	err = payments.VerifyPayment(context.Background(), "other@example.com", order.OrderID, "pay_1", sig)
	require.ErrorIs(t, err, appErr.ErrOrderNotFound)
}

func TestVerifyPayment_CreditsOnlyOnce(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeTranslate, 0)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeTranslate, 2)
	require.NoError(t, err)

	sig := signOrder("key_secret", order.OrderID, "pay_1")
	require.NoError(t, payments.VerifyPayment(context.Background(), "reader@example.com", order.OrderID, "pay_1", sig))

	err = payments.VerifyPayment(context.Background(), "reader@example.com", order.OrderID, "pay_1", sig)
	require.ErrorIs(t, err, appErr.ErrConflict)
	require.Equal(t, 2, quotas.paid["reader@example.com"][model.ModeTranslate])
}

func TestAuthorize_FreeQuotaOnly(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeProofread, 3)

	require.NoError(t, payments.Authorize(context.Background(), "reader@example.com", model.ModeProofread, 2))
	require.Equal(t, 1, quotas.free["reader@example.com"][model.ModeProofread])
}

func TestAuthorize_RequiresPaymentPastQuota(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeProofread, 1)

	err := payments.Authorize(context.Background(), "reader@example.com", model.ModeProofread, 3)
	require.ErrorIs(t, err, appErr.ErrPaymentRequired)
	// Nothing is spent when authorization fails.
	require.Equal(t, 1, quotas.free["reader@example.com"][model.ModeProofread])
}

func TestAuthorize_PaidBalanceCoversRemainder(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeProofread, 1)

	order, err := payments.CreateOrder(context.Background(), "reader@example.com", model.ModeProofread, 3)
	require.NoError(t, err)
	sig := signOrder("key_secret", order.OrderID, "pay_1")
	require.NoError(t, payments.VerifyPayment(context.Background(), "reader@example.com", order.OrderID, "pay_1", sig))

	require.NoError(t, payments.Authorize(context.Background(), "reader@example.com", model.ModeProofread, 3))
	require.Zero(t, quotas.free["reader@example.com"][model.ModeProofread])
	require.Zero(t, quotas.paid["reader@example.com"][model.ModeProofread])

	// The credit is gone; another job needs another payment.
	err = payments.Authorize(context.Background(), "reader@example.com", model.ModeProofread, 2)
	require.ErrorIs(t, err, appErr.ErrPaymentRequired)
}

func TestAuthorize_PaidBalanceSpansJobs(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeOCR, 0)
	quotas.setPaid("reader@example.com", model.ModeOCR, 5)

	require.NoError(t, payments.Authorize(context.Background(), "reader@example.com", model.ModeOCR, 2))
	require.NoError(t, payments.Authorize(context.Background(), "reader@example.com", model.ModeOCR, 3))
	require.Zero(t, quotas.paid["reader@example.com"][model.ModeOCR])

	err := payments.Authorize(context.Background(), "reader@example.com", model.ModeOCR, 1)
	require.ErrorIs(t, err, appErr.ErrPaymentRequired)
}

func TestAuthorize_PaidBalanceIsPerMode(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeProofread, 0)
	quotas.setPaid("reader@example.com", model.ModeTranslate, 2)

	err := payments.Authorize(context.Background(), "reader@example.com", model.ModeProofread, 2)
	require.ErrorIs(t, err, appErr.ErrPaymentRequired)
	// The translate credit is untouched.
	require.Equal(t, 2, quotas.paid["reader@example.com"][model.ModeTranslate])
}

func TestAuthorize_RecomputesWhenBalancesMove(t *testing.T) {
	payments, _, quotas, _ := newTestPayments(t)
	quotas.setFree("reader@example.com", model.ModeProofread, 2)
	quotas.setPaid("reader@example.com", model.ModeProofread, 3)

	// A concurrent job drains the free quota after the split is computed.
	drained := false
	quotas.beforeSpend = func() {
		if !drained {
			drained = true
			quotas.free["reader@example.com"][model.ModeProofread] = 0
		}
	}

	require.NoError(t, payments.Authorize(context.Background(), "reader@example.com", model.ModeProofread, 2))
	// The losing spend burned nothing; the retry covered it from paid balance.
	require.Equal(t, 1, quotas.paid["reader@example.com"][model.ModeProofread])
}
