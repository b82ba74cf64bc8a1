package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
	"github.com/shopspring/decimal"
)

// PaymentRepository handles payment data access
type PaymentRepository struct {
	db database.Database
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db database.Database) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// paymentRecord stores the amount as a string so no precision is lost
type paymentRecord struct {
	model.Payment
	Amount string `json:"amount"`
}

func (r paymentRecord) toModel() (*model.Payment, error) {
	p := r.Payment
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("parsing payment amount %q: %w", r.Amount, err)
	}
	p.Amount = amount
	return &p, nil
}

func decodePayment(raw interface{}, err error) (*model.Payment, error) {
	rec, err := decodeOne[paymentRecord](raw, err)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.toModel()
}

// Create stores a PENDING payment
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		CREATE payment CONTENT {
			user_id: $user_id,
			amount: $amount,
			method: $method,
			status: $status,
			transaction_id: $transaction_id,
			description: $description,
			metadata: $metadata,
			subscription_data: $subscription_data,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	var sub interface{}
	if p.SubscriptionData != nil {
		sub = map[string]interface{}{
			"plan":          p.SubscriptionData.Plan,
			"duration_days": p.SubscriptionData.DurationDays,
		}
	}
	raw, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id":           p.UserID,
		"amount":            p.Amount.String(),
		"method":            p.Method,
		"status":            model.PaymentPending,
		"transaction_id":    p.TransactionID,
		"description":       p.Description,
		"metadata":          metadata,
		"subscription_data": sub,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("creating payment: %w", err)
	}
	created, err := decodePayment(raw, nil)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

// GetByTransactionID retrieves a payment by its gateway reference
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txnID string) (*model.Payment, error) {
	return decodePayment(r.db.QueryOne(ctx, `SELECT * FROM payment WHERE transaction_id = $txn LIMIT 1`,
		map[string]interface{}{"txn": txnID}))
}

// Settle moves a PENDING payment to status and merges metadata. It returns
// database.ErrConflict when the payment already left PENDING.
func (r *PaymentRepository) Settle(ctx context.Context, txnID string, status model.PaymentStatus, metadata map[string]interface{}) (*model.Payment, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	query := `UPDATE payment SET
			status = $status,
			metadata = object::extend(metadata ?? {}, $metadata),
			updated_on = time::now()
		WHERE transaction_id = $txn AND status = $pending
		RETURN AFTER`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"txn":      txnID,
		"status":   status,
		"pending":  model.PaymentPending,
		"metadata": metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("settling payment: %w", err)
	}
	records := statementResult(results, 0)
	if len(records) == 0 {
		return nil, database.ErrConflict
	}
	return decodePayment(records[0], nil)
}

// ListByUser lists a user's payments, newest first
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, status model.PaymentStatus, page model.Page) (*model.PageResult[*model.Payment], error) {
	where := "user_id = $user_id"
	vars := map[string]interface{}{"user_id": userID, "limit": page.Limit, "start": page.Offset()}
	if status != "" {
		where += " AND status = $status"
		vars["status"] = status
	}
	query := `SELECT * FROM payment WHERE ` + where + ` ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() FROM payment WHERE ` + where + ` GROUP ALL;`
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	recs, err := decodeList[paymentRecord](results, 0)
	if err != nil {
		return nil, err
	}
	items := make([]*model.Payment, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return &model.PageResult[*model.Payment]{Items: items, Total: extractCount(results, 1), Page: page}, nil
}
