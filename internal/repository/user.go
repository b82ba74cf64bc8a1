package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// userRecord carries the fields the API model never serializes
type userRecord struct {
	model.User
	PasswordHash *string    `json:"password_hash"`
	OTP          *model.OTP `json:"otp"`
}

func (r userRecord) toModel() *model.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	u.OTP = r.OTP
	return &u
}

func decodeUser(raw interface{}, err error) (*model.User, error) {
	rec, err := decodeOne[userRecord](raw, err)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel(), nil
}

const userSelect = `SELECT * FROM user`

// Create creates a new user. The email is stored lowercased.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Subscription.Plan == "" {
		user.Subscription.Plan = model.PlanFree
	}

	setClause := `
		email = $email,
		role = $role,
		status = $status,
		is_email_verified = $verified,
		subscription = { plan: $plan, post_used: 0, urgent_used: 0, auto_renew: false },
		created_on = time::now(),
		updated_on = time::now()`
	vars := map[string]interface{}{
		"email":    user.Email,
		"role":     user.Role,
		"status":   user.Status,
		"verified": user.IsEmailVerified,
		"plan":     user.Subscription.Plan,
	}
	if user.PasswordHash != nil {
		setClause += ", password_hash = $password_hash"
		vars["password_hash"] = *user.PasswordHash
	}
	if user.Phone != nil {
		setClause += ", phone = $phone"
		vars["phone"] = *user.Phone
	}
	if user.GoogleID != nil {
		setClause += ", google_id = $google_id"
		vars["google_id"] = *user.GoogleID
	}
	if user.OTP != nil {
		setClause += ", otp = { code: $otp_code, expires_at: <datetime>$otp_expires }"
		vars["otp_code"] = user.OTP.Code
		vars["otp_expires"] = datetime(user.OTP.ExpiresAt)
	}

	raw, err := r.db.QueryOne(ctx, "CREATE user SET "+setClause, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("creating user: %w", err)
	}

	created, err := decodeUser(raw, nil)
	if err != nil {
		return err
	}
	user.ID = created.ID
	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return decodeUser(r.db.QueryOne(ctx, userSelect+` WHERE id = type::record($id)`, map[string]interface{}{"id": id}))
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return decodeUser(r.db.QueryOne(ctx, userSelect+` WHERE email = $email LIMIT 1`,
		map[string]interface{}{"email": strings.ToLower(strings.TrimSpace(email))}))
}

// GetByGoogleID retrieves a user by linked Google account
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return decodeUser(r.db.QueryOne(ctx, userSelect+` WHERE google_id = $gid LIMIT 1`, map[string]interface{}{"gid": googleID}))
}

// UpdatePhone sets the contact phone
func (r *UserRepository) UpdatePhone(ctx context.Context, userID string, phone *string) error {
	return r.db.Execute(ctx, `UPDATE type::record($id) SET phone = $phone, updated_on = time::now()`,
		map[string]interface{}{"id": userID, "phone": optional(phone)})
}

// SetOTP stores a new verification code
func (r *UserRepository) SetOTP(ctx context.Context, userID string, otp model.OTP) error {
	query := `UPDATE type::record($id) SET otp = { code: $code, expires_at: <datetime>$expires }, updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":      userID,
		"code":    otp.Code,
		"expires": datetime(otp.ExpiresAt),
	})
}

// MarkVerified activates the account and clears the code
func (r *UserRepository) MarkVerified(ctx context.Context, userID string) error {
	query := `UPDATE type::record($id) SET is_email_verified = true, status = $status, otp = NONE, updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": userID, "status": model.UserStatusActive})
}

// LinkGoogle attaches a Google account and marks the email as verified
func (r *UserRepository) LinkGoogle(ctx context.Context, userID, googleID string) error {
	query := `UPDATE type::record($id) SET google_id = $gid, is_email_verified = true, updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": userID, "gid": googleID})
}

// SetStatus changes the account status
func (r *UserRepository) SetStatus(ctx context.Context, userID string, status model.UserStatus) error {
	return r.db.Execute(ctx, `UPDATE type::record($id) SET status = $status, updated_on = time::now()`,
		map[string]interface{}{"id": userID, "status": status})
}

// IncrementUsage bumps the monthly post counter and, for urgent posts, the urgent counter
func (r *UserRepository) IncrementUsage(ctx context.Context, userID string, urgent bool) error {
	query := `UPDATE type::record($id) SET subscription.post_used += 1, updated_on = time::now()`
	if urgent {
		query = `UPDATE type::record($id) SET subscription.post_used += 1, subscription.urgent_used += 1, updated_on = time::now()`
	}
	return r.db.Execute(ctx, query, map[string]interface{}{"id": userID})
}

// ActivatePlan switches to plan until expiredAt and resets the counters
func (r *UserRepository) ActivatePlan(ctx context.Context, userID string, plan model.Plan, expiredAt time.Time) error {
	query := `UPDATE type::record($id) SET
		subscription.plan = $plan,
		subscription.expired_at = <datetime>$expired_at,
		subscription.post_used = 0,
		subscription.urgent_used = 0,
		subscription.auto_renew = true,
		updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":         userID,
		"plan":       plan,
		"expired_at": datetime(expiredAt),
	})
}

// SetAutoRenew toggles renewal of the current plan
func (r *UserRepository) SetAutoRenew(ctx context.Context, userID string, autoRenew bool) error {
	return r.db.Execute(ctx, `UPDATE type::record($id) SET subscription.auto_renew = $auto, updated_on = time::now()`,
		map[string]interface{}{"id": userID, "auto": autoRenew})
}

// ResetMonthlyUsage zeroes the post and urgent counters of every user
func (r *UserRepository) ResetMonthlyUsage(ctx context.Context) (int, error) {
	results, err := r.db.Query(ctx, `UPDATE user SET subscription.post_used = 0, subscription.urgent_used = 0 RETURN id`, nil)
	if err != nil {
		return 0, fmt.Errorf("resetting usage: %w", err)
	}
	return len(statementResult(results, 0)), nil
}

// DowngradeExpired moves every expired premium subscription back to FREE
func (r *UserRepository) DowngradeExpired(ctx context.Context, now time.Time) (int, error) {
	query := `UPDATE user SET
			subscription.plan = $free,
			subscription.expired_at = NONE,
			subscription.auto_renew = false,
			updated_on = time::now()
		WHERE subscription.plan = $premium AND subscription.expired_at != NONE AND subscription.expired_at < <datetime>$now
		RETURN id`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"free":    model.PlanFree,
		"premium": model.PlanPremium,
		"now":     datetime(now),
	})
	if err != nil {
		return 0, fmt.Errorf("downgrading subscriptions: %w", err)
	}
	return len(statementResult(results, 0)), nil
}

// ListByIDs returns the users with the given IDs
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	results, err := r.db.Query(ctx, userSelect+` WHERE <string> id IN $ids`, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, err
	}
	recs, err := decodeList[userRecord](results, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

// Delete removes a user together with its profiles and refresh tokens
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"user_id": id}
	err := database.NewAtomicBatch().
		Add(`DELETE ctv_profile WHERE user_id = $user_id`, vars).
		Add(`DELETE btc_profile WHERE user_id = $user_id`, vars).
		Add(`DELETE refresh_token WHERE user_id = $user_id`, vars).
		Add(`DELETE type::record($id)`, map[string]interface{}{"id": id}).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
