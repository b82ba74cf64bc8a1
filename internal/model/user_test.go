package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserRole_IsValid(t *testing.T) {
	t.Parallel()

	for _, r := range []UserRole{UserRoleCTV, UserRoleBTC, UserRoleAdmin} {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, UserRole("GUEST").IsValid())
	assert.False(t, UserRole("").IsValid())
}

func TestSubscription_IsPremiumActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"free plan", Subscription{Plan: PlanFree}, false},
		{"premium without expiry", Subscription{Plan: PlanPremium}, false},
		{"premium running", Subscription{Plan: PlanPremium, ExpiredAt: &later}, true},
		{"premium expired", Subscription{Plan: PlanPremium, ExpiredAt: &earlier}, false},
		{"free with stale expiry", Subscription{Plan: PlanFree, ExpiredAt: &later}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsPremiumActive(now))
			u := &User{Subscription: tt.sub}
			assert.Equal(t, tt.want, u.IsPremium(now))
		})
	}
}

func TestOTP_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	otp := &OTP{Code: "123456", ExpiresAt: now.Add(time.Minute)}
	assert.False(t, otp.Expired(now))
	assert.True(t, otp.Expired(now.Add(time.Minute)))
}

func TestUser_Summary(t *testing.T) {
	t.Parallel()

	hash := "secret"
	u := &User{ID: "user:1", Email: "a@b.vn", Role: UserRoleBTC, Status: UserStatusActive, PasswordHash: &hash}
	s := u.Summary()

	assert.Equal(t, UserSummary{ID: "user:1", Email: "a@b.vn", Role: UserRoleBTC, Status: UserStatusActive}, s)
	assert.False(t, u.IsAdmin())
}

func TestRefreshToken_IsValid(t *testing.T) {
	t.Parallel()

	now := time.Now()
	used := now.Add(-time.Minute)

	assert.True(t, (&RefreshToken{ExpiresOn: now.Add(time.Hour)}).IsValid(now))
	assert.False(t, (&RefreshToken{ExpiresOn: now.Add(-time.Second)}).IsValid(now))
	assert.False(t, (&RefreshToken{ExpiresOn: now.Add(time.Hour), UsedOn: &used}).IsValid(now))
	assert.False(t, (&RefreshToken{ExpiresOn: now.Add(time.Hour), RevokedOn: &used}).IsValid(now))
}

func TestPaymentMethod_IsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, PaymentMoMo.IsValid())
	assert.True(t, PaymentVNPay.IsValid())
	assert.True(t, PaymentPayOS.IsValid())
	assert.False(t, PaymentMethod("ZALOPAY").IsValid())

	p := &Payment{Status: PaymentPending}
	assert.False(t, p.IsSettled())
	p.Status = PaymentFailed
	assert.True(t, p.IsSettled())
}
