package model

import "time"

// UserRole represents the role of a user in the marketplace
type UserRole string

const (
	UserRoleCTV   UserRole = "CTV"   // Collaborator, applies to events
	UserRoleBTC   UserRole = "BTC"   // Organizer, posts events
	UserRoleAdmin UserRole = "ADMIN" // Platform administrator
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCTV, UserRoleBTC, UserRoleAdmin:
		return true
	}
	return false
}

// UserStatus represents the account state
type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBlocked UserStatus = "BLOCKED"
	UserStatusPending UserStatus = "PENDING" // Waiting for email verification
)

// Plan is a subscription plan name
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

// Subscription tracks the plan and the monthly usage counters of an organizer
type Subscription struct {
	Plan       Plan       `json:"plan"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
	PostUsed   int        `json:"post_used"`
	UrgentUsed int        `json:"urgent_used"`
	AutoRenew  bool       `json:"auto_renew"`
}

// IsPremiumActive reports whether the subscription is a premium plan that has not expired
func (s Subscription) IsPremiumActive(now time.Time) bool {
	return s.Plan == PlanPremium && s.ExpiredAt != nil && now.Before(*s.ExpiredAt)
}

// OTP is a one-time email verification code
type OTP struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the code can no longer be used
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// User represents an account
type User struct {
	ID              string       `json:"id"`
	Email           string       `json:"email"`
	PasswordHash    *string      `json:"-"` // Never expose password hash
	Role            UserRole     `json:"role"`
	Phone           *string      `json:"phone,omitempty"`
	IsEmailVerified bool         `json:"is_email_verified"`
	Status          UserStatus   `json:"status"`
	Subscription    Subscription `json:"subscription"`
	GoogleID        *string      `json:"google_id,omitempty"`
	OTP             *OTP         `json:"-"`
	CreatedOn       time.Time    `json:"created_on"`
	UpdatedOn       time.Time    `json:"updated_on"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// IsPremium returns true if the user currently holds an active premium plan
func (u *User) IsPremium(now time.Time) bool {
	return u.Subscription.IsPremiumActive(now)
}

// UserSummary is the user shape returned alongside tokens
type UserSummary struct {
	ID     string     `json:"id"`
	Email  string     `json:"email"`
	Role   UserRole   `json:"role"`
	Status UserStatus `json:"status"`
}

// Summary returns the public summary of the user
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:     u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
}

// RefreshToken is a stored (hashed) refresh token used for rotation
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"token_hash"`
	ExpiresOn time.Time  `json:"expires_on"`
	UsedOn    *time.Time `json:"used_on,omitempty"`
	RevokedOn *time.Time `json:"revoked_on,omitempty"`
	CreatedOn time.Time  `json:"created_on"`
}

// IsValid reports whether the token can still be exchanged
func (t *RefreshToken) IsValid(now time.Time) bool {
	return t.UsedOn == nil && t.RevokedOn == nil && now.Before(t.ExpiresOn)
}
