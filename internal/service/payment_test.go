package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/cache"
	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/model"
)

type paymentFixture struct {
	payments *fakePaymentRepo
	users    *fakeUserRepo
	subs     *SubscriptionService
	svc      *PaymentService
	vnpay    *stubVNPay
	momo     *stubMoMo
	payos    *stubPayOS
	notifier *recordingNotifier
	locks    *cache.MemoryStore
	now      time.Time
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	now := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	f := &paymentFixture{
		payments: newFakePaymentRepo(),
		users:    newFakeUserRepo(newOrganizer("user:btc"), newCollaborator("user:ctv")),
		vnpay:    &stubVNPay{configured: true},
		momo:     &stubMoMo{configured: true},
		payos:    &stubPayOS{configured: true},
		notifier: &recordingNotifier{},
		locks:    cache.NewMemoryStore(),
		now:      now,
	}
	f.subs = NewSubscriptionService(SubscriptionServiceConfig{UserRepo: f.users, Plans: DefaultPlanConfig()})
	f.subs.now = func() time.Time { return now }
	f.svc = NewPaymentService(PaymentServiceConfig{
		PaymentRepo: f.payments,
		VNPay:       f.vnpay,
		MoMo:        f.momo,
		PayOS:       f.payos,
		Activator:   f.subs,
		Notifier:    f.notifier,
		Cache:       f.locks,
	})
	f.svc.now = func() time.Time { return now }
	f.subs.SetCheckout(f.svc)
	return f
}

func (f *paymentFixture) upgrade(t *testing.T, method model.PaymentMethod) *model.CheckoutResult {
	t.Helper()
	res, err := f.subs.Upgrade(context.Background(), "user:btc", method, "127.0.0.1")
	require.NoError(t, err)
	return res
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// ============================================================================
// Subscription
// ============================================================================

func TestSubscriptionPlans(t *testing.T) {
	f := newPaymentFixture(t)

	plans := f.subs.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, model.PlanFree, plans[0].Name)
	assert.Equal(t, 3, plans[0].PostLimit)
	assert.False(t, plans[0].BulkApproval)
	assert.Equal(t, model.PlanPremium, plans[1].Name)
	assert.True(t, plans[1].Price.Equal(decimal.NewFromInt(499000)))
	assert.Equal(t, 15, plans[1].PostLimit)
}

func TestUpgrade_Guards(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.subs.Upgrade(context.Background(), "user:btc", "PAYPAL", "")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = f.subs.Upgrade(context.Background(), "user:ctv", model.PaymentVNPay, "")
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	makePremium(f.users.users["user:btc"], f.now)
	_, err = f.subs.Upgrade(context.Background(), "user:btc", model.PaymentVNPay, "")
	assert.ErrorIs(t, err, ErrAlreadyPremium)
}

func TestUpgrade_GatewayNotConfigured(t *testing.T) {
	f := newPaymentFixture(t)
	f.momo.configured = false

	_, err := f.subs.Upgrade(context.Background(), "user:btc", model.PaymentMoMo, "")
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
	assert.Empty(t, f.payments.payments)
}

func TestCancelSubscription(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.subs.Cancel(context.Background(), "user:btc")
	assert.ErrorIs(t, err, ErrNoActiveSubscription)

	makePremium(f.users.users["user:btc"], f.now).Subscription.AutoRenew = true
	current, err := f.subs.Cancel(context.Background(), "user:btc")
	require.NoError(t, err)
	assert.False(t, current.AutoRenew)
	assert.True(t, current.IsActive)
	assert.Equal(t, model.PlanPremium, current.Plan)
}

func TestActivate_ExtendsFromCurrentExpiry(t *testing.T) {
	f := newPaymentFixture(t)
	user := makePremium(f.users.users["user:btc"], f.now)
	currentExpiry := *user.Subscription.ExpiredAt

	expiredAt, err := f.subs.Activate(context.Background(), "user:btc", model.PlanPremium, 30)
	require.NoError(t, err)
	assert.Equal(t, currentExpiry.AddDate(0, 0, 30), expiredAt)

	f.users.users["user:ctv"].Subscription = model.Subscription{Plan: model.PlanFree, PostUsed: 2}
	expiredAt, err = f.subs.Activate(context.Background(), "user:ctv", model.PlanPremium, 30)
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(0, 0, 30), expiredAt)
	assert.Zero(t, f.users.users["user:ctv"].Subscription.PostUsed)
}

func TestDowngradeExpired(t *testing.T) {
	f := newPaymentFixture(t)
	past := f.now.Add(-time.Hour)
	f.users.users["user:btc"].Subscription = model.Subscription{Plan: model.PlanPremium, ExpiredAt: &past}

	n, err := f.subs.DowngradeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.PlanFree, f.users.users["user:btc"].Subscription.Plan)
}

// ============================================================================
// Checkout
// ============================================================================

func TestStartCheckout_CreatesPendingPayment(t *testing.T) {
	f := newPaymentFixture(t)

	res := f.upgrade(t, model.PaymentVNPay)

	assert.Equal(t, model.PaymentVNPay, res.Method)
	assert.True(t, strings.HasPrefix(res.PaymentURL, "https://vnpay.test/pay"))
	payment := f.payments.payments[res.TransactionID]
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(499000)))
	assert.Equal(t, model.PlanPremium, payment.SubscriptionData.Plan)
	assert.Equal(t, 30, payment.SubscriptionData.DurationDays)
}

func TestStartCheckout_PayOSUsesNumericOrderCode(t *testing.T) {
	f := newPaymentFixture(t)

	res := f.upgrade(t, model.PaymentPayOS)

	assert.Regexp(t, `^\d+$`, res.TransactionID)
}

func TestStartCheckout_GatewayFailureMarksPaymentFailed(t *testing.T) {
	f := newPaymentFixture(t)
	f.vnpay.urlErr = errors.New("bad config")

	_, err := f.subs.Upgrade(context.Background(), "user:btc", model.PaymentVNPay, "")
	require.ErrorIs(t, err, ErrPaymentUnavailable)

	require.Len(t, f.payments.payments, 1)
	for _, p := range f.payments.payments {
		assert.Equal(t, model.PaymentFailed, p.Status)
	}
}

// ============================================================================
// Settlement
// ============================================================================

func TestSettle_SuccessActivatesPremium(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentMoMo)

	payment, err := f.svc.Settle(context.Background(), model.PaymentMoMo, &gateway.Result{
		TransactionID: res.TransactionID,
		Success:       true,
		Amount:        amount(499000),
		Metadata:      map[string]interface{}{"momo_trans_id": "123"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentSuccess, payment.Status)
	user := f.users.users["user:btc"]
	assert.True(t, user.IsPremium(f.now))
	assert.Equal(t, f.now.AddDate(0, 0, 30), *user.Subscription.ExpiredAt)
	assert.Equal(t, []model.NotificationType{model.NotificationPayment}, f.notifier.types())
}

func TestSettle_Failure(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentMoMo)

	payment, err := f.svc.Settle(context.Background(), model.PaymentMoMo, &gateway.Result{TransactionID: res.TransactionID, Code: "1006"})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.False(t, f.users.users["user:btc"].IsPremium(f.now))
	assert.Empty(t, f.notifier.sent)
}

func TestSettle_OnlyOnce(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentVNPay)
	result := &gateway.Result{TransactionID: res.TransactionID, Success: true}

	_, err := f.svc.Settle(context.Background(), model.PaymentVNPay, result)
	require.NoError(t, err)
	expiry := *f.users.users["user:btc"].Subscription.ExpiredAt

	payment, err := f.svc.Settle(context.Background(), model.PaymentVNPay, result)
	assert.ErrorIs(t, err, ErrPaymentAlreadySettled)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
	assert.Equal(t, expiry, *f.users.users["user:btc"].Subscription.ExpiredAt)
	assert.Len(t, f.notifier.sent, 1)
}

func TestSettle_Rejections(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentVNPay)

	_, err := f.svc.Settle(context.Background(), model.PaymentVNPay, &gateway.Result{TransactionID: "nope", Success: true})
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.svc.Settle(context.Background(), model.PaymentVNPay, &gateway.Result{
		TransactionID: res.TransactionID, Success: true, Amount: amount(1000),
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, model.PaymentPending, f.payments.payments[res.TransactionID].Status)

	release, err := f.locks.Acquire(context.Background(), "payment:"+res.TransactionID, time.Minute)
	require.NoError(t, err)
	defer release()
	_, err = f.svc.Settle(context.Background(), model.PaymentVNPay, &gateway.Result{TransactionID: res.TransactionID, Success: true})
	assert.ErrorIs(t, err, ErrPaymentInProgress)
}

// ============================================================================
// Provider callbacks
// ============================================================================

func TestVNPayIPN_Codes(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentVNPay)

	f.vnpay.verifyErr = gateway.ErrInvalidSignature
	assert.Equal(t, gateway.VNPayChecksumFailed, f.svc.VNPayIPN(context.Background(), url.Values{}).RspCode)

	f.vnpay.verifyErr = nil
	f.vnpay.result = &gateway.Result{TransactionID: "missing", Success: true}
	assert.Equal(t, gateway.VNPayOrderNotFound, f.svc.VNPayIPN(context.Background(), url.Values{}).RspCode)

	f.vnpay.result = &gateway.Result{TransactionID: res.TransactionID, Success: true, Amount: amount(1)}
	assert.Equal(t, gateway.VNPayInvalidAmount, f.svc.VNPayIPN(context.Background(), url.Values{}).RspCode)

	f.vnpay.result = &gateway.Result{TransactionID: res.TransactionID, Success: true, Amount: amount(499000)}
	assert.Equal(t, gateway.VNPayConfirmSuccess, f.svc.VNPayIPN(context.Background(), url.Values{}).RspCode)
	assert.Equal(t, gateway.VNPayAlreadyConfirmed, f.svc.VNPayIPN(context.Background(), url.Values{}).RspCode)
}

func TestVNPayReturn_AfterIPNReturnsStoredPayment(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentVNPay)
	f.vnpay.result = &gateway.Result{TransactionID: res.TransactionID, Success: true}

	require.Equal(t, gateway.VNPayConfirmSuccess, f.svc.VNPayIPN(context.Background(), url.Values{}).RspCode)

	payment, err := f.svc.VNPayReturn(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
}

func TestPayOSReturn(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentPayOS)

	pending, err := f.svc.PayOSReturn(context.Background(), res.TransactionID, "PENDING", "false")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pending.Status)

	cancelled, err := f.svc.PayOSReturn(context.Background(), res.TransactionID, "", "true")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, cancelled.Status)

	_, err = f.svc.PayOSReturn(context.Background(), "999", "PENDING", "")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPayOSReturn_PaidQueryAloneDoesNotSettle(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentPayOS)

	payment, err := f.svc.PayOSReturn(context.Background(), res.TransactionID, "PAID", "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, payment.Status)
	assert.Equal(t, 1, f.payos.lookups)
	assert.Equal(t, model.PaymentPending, f.payments.payments[res.TransactionID].Status)
	assert.Equal(t, model.PlanFree, f.users.users["user:btc"].Subscription.Plan)

	f.payos.statusErr = errors.New("payos down")
	payment, err = f.svc.PayOSReturn(context.Background(), res.TransactionID, "PAID", "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, payment.Status)
	assert.Equal(t, model.PlanFree, f.users.users["user:btc"].Subscription.Plan)
}

func TestPayOSReturn_SettlesWhenProviderConfirms(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentPayOS)
	f.payos.status = &gateway.Result{TransactionID: res.TransactionID, Success: true, Code: "PAID", Amount: amount(499000)}
	f.payos.statusFinal = true

	payment, err := f.svc.PayOSReturn(context.Background(), res.TransactionID, "PAID", "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
	assert.Equal(t, model.PlanPremium, f.users.users["user:btc"].Subscription.Plan)

	// Settled payments are not looked up again
	_, err = f.svc.PayOSReturn(context.Background(), res.TransactionID, "PAID", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.payos.lookups)
}

func TestPayOSReturn_ProviderAmountMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentPayOS)
	f.payos.status = &gateway.Result{TransactionID: res.TransactionID, Success: true, Code: "PAID", Amount: amount(1000)}
	f.payos.statusFinal = true

	_, err := f.svc.PayOSReturn(context.Background(), res.TransactionID, "PAID", "")
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, model.PlanFree, f.users.users["user:btc"].Subscription.Plan)
}

func TestMoMoResult_AmountMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentMoMo)
	f.momo.result = &gateway.Result{TransactionID: res.TransactionID, Success: true, Amount: amount(1000)}

	_, err := f.svc.MoMoResult(context.Background(), gateway.MoMoResult{})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, model.PaymentPending, f.payments.payments[res.TransactionID].Status)
}

func TestPayOSWebhook_AmountMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentPayOS)
	f.payos.result = &gateway.Result{TransactionID: res.TransactionID, Success: true, Code: "00", Amount: amount(2000)}

	_, err := f.svc.PayOSWebhook(context.Background(), gateway.PayOSWebhook{})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, model.PlanFree, f.users.users["user:btc"].Subscription.Plan)
}

func TestPayOSWebhook_InvalidSignature(t *testing.T) {
	f := newPaymentFixture(t)
	f.payos.verifyErr = gateway.ErrInvalidSignature

	_, err := f.svc.PayOSWebhook(context.Background(), gateway.PayOSWebhook{})
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
}

func TestGetByTransaction_OwnOnly(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.upgrade(t, model.PaymentMoMo)

	_, err := f.svc.GetByTransaction(context.Background(), "user:ctv", res.TransactionID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	payment, err := f.svc.GetByTransaction(context.Background(), "user:btc", res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, res.PaymentID, payment.ID)

	list, err := f.svc.List(context.Background(), "user:btc", model.PaymentPending, model.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}
