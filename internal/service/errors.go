package service

import (
	"errors"
	"fmt"

	"github.com/eventup/api/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleMismatch       = errors.New("account does not have the requested role")
	ErrAccountBlocked     = errors.New("account has been blocked")
	ErrAccountPending     = errors.New("please verify your email before logging in")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrOTPNotFound        = errors.New("no verification code was requested")
	ErrOTPExpired         = errors.New("verification code has expired")
	ErrOTPInvalid         = errors.New("verification code is incorrect")
	ErrOTPThrottled       = errors.New("please wait before requesting another code")
	ErrRoleRequired       = errors.New("role is required for new accounts")
	ErrInvalidRole        = errors.New("role must be CTV or BTC")
	ErrGoogleAuthFailed   = errors.New("google authentication failed")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Profile Errors =====
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// ===== Event Errors =====
var (
	ErrEventNotFound         = errors.New("event not found")
	ErrNotEventOwner         = errors.New("not the organizer of this event")
	ErrPostLimitReached      = errors.New("monthly post limit reached")
	ErrUrgentRequiresPremium = errors.New("urgent posts require a premium subscription")
	ErrUrgentLimitReached    = errors.New("monthly urgent post limit reached")
	ErrEventHasApplications  = errors.New("cannot delete an event that has applications")
	ErrOrganizerOnly         = errors.New("only organizers can perform this action")
	ErrCollaboratorOnly      = errors.New("only collaborators can perform this action")
	ErrPremiumRequired       = errors.New("this feature requires a premium subscription")
)

// ===== Application Errors =====
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrNotApplicationOwner = errors.New("not the owner of this application")
	ErrCannotApply         = errors.New("event is not accepting applications")
	ErrAlreadyApplied      = errors.New("you have already applied to this event")
	ErrInvalidTransition   = errors.New("application is not in a state that allows this action")
	ErrEventFull           = errors.New("event has no remaining slots")
	ErrEmptySelection      = errors.New("at least one application must be selected")
)

// ===== Review Errors =====
var (
	ErrReviewNotFound           = errors.New("review not found")
	ErrNotReviewAuthor          = errors.New("not the author of this review")
	ErrAlreadyReviewed          = errors.New("you have already reviewed this user for this event")
	ErrReviewNotAllowed         = errors.New("you can only review organizers of events you took part in")
	ErrReviewRequiresCompletion = errors.New("the collaborator has not finished this event")
)

// ===== Notification Errors =====
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// ===== Subscription & Payment Errors =====
var (
	ErrAlreadyPremium        = errors.New("you already have an active premium subscription")
	ErrNoActiveSubscription  = errors.New("no active subscription to cancel")
	ErrInvalidPaymentMethod  = errors.New("unsupported payment method")
	ErrPaymentUnavailable    = errors.New("payment provider is not available")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentAlreadySettled = errors.New("payment has already been processed")
	ErrPaymentInProgress     = errors.New("payment is being processed")
	ErrAmountMismatch        = errors.New("payment amount does not match")
)

// ===== File Errors =====
var (
	ErrFileRequired        = errors.New("no file uploaded")
	ErrFileTooLarge        = errors.New("file exceeds the maximum size of 5MB")
	ErrUnsupportedFileType = errors.New("only image files are allowed (jpeg, jpg, png, gif, webp)")
	ErrTooManyFiles        = errors.New("at most 10 files can be uploaded at once")
	ErrStorageUnavailable  = errors.New("file storage is not available")
	ErrFileForbidden       = errors.New("you can only delete your own files")
)

// ValidationError carries per-field problems
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("%s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// NewValidationError wraps field errors, returning nil when there are none
func NewValidationError(fields []model.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// LimitError reports a quota that was hit
type LimitError struct {
	Err     error
	Limit   int
	Current int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s (%d/%d)", e.Err.Error(), e.Current, e.Limit)
}

func (e *LimitError) Unwrap() error { return e.Err }
