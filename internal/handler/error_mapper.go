package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Unknown errors map to nil so the caller can log them before answering 500.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return model.NewValidationError(ve.Fields)
	}
	var le *service.LimitError
	if errors.As(err, &le) {
		p := model.NewLimitExceededError("posts this month", le.Limit, le.Current)
		p.Message = le.Err.Error()
		p.Detail = le.Error()
		return p
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrGoogleAuthFailed):
		return model.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		return model.NewTokenError(err.Error(), model.ErrCodeTokenInvalid)

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrAccountBlocked):
		return model.NewForbiddenErrorCode(err.Error(), model.ErrCodeAccountBlocked)
	case errors.Is(err, service.ErrPremiumRequired),
		errors.Is(err, service.ErrUrgentRequiresPremium):
		return model.NewForbiddenErrorCode(err.Error(), model.ErrCodePremiumRequired)
	case errors.Is(err, service.ErrNotEventOwner),
		errors.Is(err, service.ErrNotApplicationOwner),
		errors.Is(err, service.ErrNotReviewAuthor),
		errors.Is(err, service.ErrFileForbidden):
		return model.NewForbiddenErrorCode(err.Error(), model.ErrCodeNotOwner)
	case errors.Is(err, service.ErrRoleMismatch),
		errors.Is(err, service.ErrAccountPending),
		errors.Is(err, service.ErrOrganizerOnly),
		errors.Is(err, service.ErrCollaboratorOnly),
		errors.Is(err, service.ErrReviewNotAllowed):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrProfileNotFound):
		return model.NewNotFoundError("profile")
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrApplicationNotFound):
		return model.NewNotFoundError("application")
	case errors.Is(err, service.ErrReviewNotFound):
		return model.NewNotFoundError("review")
	case errors.Is(err, service.ErrNotificationNotFound):
		return model.NewNotFoundError("notification")
	case errors.Is(err, service.ErrPaymentNotFound):
		return model.NewNotFoundError("payment")
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("resource")

	// ===== Duplicates → 400 =====
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return model.NewDuplicateError("email")
	case errors.Is(err, service.ErrAlreadyApplied),
		errors.Is(err, service.ErrAlreadyReviewed):
		return model.NewBadRequestErrorCode(err.Error(), model.ErrCodeAlreadyExists)
	case errors.Is(err, database.ErrDuplicate):
		return model.NewDuplicateError("record")

	// ===== Invalid state → 400 =====
	case errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPInvalid):
		return model.NewBadRequestErrorCode(err.Error(), model.ErrCodeOTPInvalid)
	case errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrCannotApply),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEventFull),
		errors.Is(err, service.ErrEventHasApplications),
		errors.Is(err, service.ErrReviewRequiresCompletion),
		errors.Is(err, service.ErrAlreadyPremium),
		errors.Is(err, service.ErrNoActiveSubscription),
		errors.Is(err, service.ErrPaymentAlreadySettled),
		errors.Is(err, service.ErrAmountMismatch):
		return model.NewBadRequestErrorCode(err.Error(), model.ErrCodeInvalidState)

	// ===== Input validation → 400 =====
	case errors.Is(err, service.ErrRoleRequired),
		errors.Is(err, service.ErrInvalidRole):
		return model.NewValidationError([]model.FieldError{{Field: "role", Message: err.Error()}})
	case errors.Is(err, service.ErrEmptySelection):
		return model.NewValidationError([]model.FieldError{{Field: "applicationIds", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		return model.NewValidationError([]model.FieldError{{Field: "method", Message: err.Error()}})
	case errors.Is(err, service.ErrFileRequired),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrTooManyFiles):
		return model.NewValidationError([]model.FieldError{{Field: "file", Message: err.Error()}})
	case errors.Is(err, gateway.ErrInvalidSignature):
		return model.NewBadRequestError("invalid payment signature")

	// ===== Throttling and concurrency =====
	case errors.Is(err, service.ErrOTPThrottled):
		return model.NewTooManyRequestsError(err.Error())
	case errors.Is(err, service.ErrPaymentInProgress):
		return model.NewConflictError(err.Error())

	// ===== Unavailable dependencies → 502/503 =====
	case errors.Is(err, service.ErrPaymentUnavailable),
		errors.Is(err, service.ErrStorageUnavailable),
		errors.Is(err, gateway.ErrNotConfigured):
		return model.NewUnavailableError(err.Error())
	case errors.Is(err, gateway.ErrProvider):
		return model.NewExternalError(err.Error())
	}

	return nil
}

// respondError writes the mapped error, logging anything unexpected as a 500
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if p := MapServiceError(err); p != nil {
		WriteError(c, p)
		return
	}
	logger.Error("unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	WriteError(c, model.NewInternalError(""))
}
