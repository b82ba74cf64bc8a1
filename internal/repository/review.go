package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// ReviewRepository handles review data access
type ReviewRepository struct {
	db database.Database
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.Database) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a review. A second review for the same (event, author, target)
// returns database.ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		CREATE review CONTENT {
			event_id: $event_id,
			from_user: $from_user,
			to_user: $to_user,
			review_type: $review_type,
			rating: $rating,
			skill: $skill,
			attitude: $attitude,
			comment: $comment,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	raw, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"event_id":    review.EventID,
		"from_user":   review.FromUser,
		"to_user":     review.ToUser,
		"review_type": review.ReviewType,
		"rating":      optional(review.Rating),
		"skill":       optional(review.Skill),
		"attitude":    optional(review.Attitude),
		"comment":     review.Comment,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return database.ErrDuplicate
		}
		return fmt.Errorf("creating review: %w", err)
	}
	created, err := decodeRecord[model.Review](raw)
	if err != nil {
		return err
	}
	*review = *created
	return nil
}

// Update rewrites the scores and comment of a review
func (r *ReviewRepository) Update(ctx context.Context, review *model.Review) error {
	query := `UPDATE type::record($id) SET
		rating = $rating,
		skill = $skill,
		attitude = $attitude,
		comment = $comment,
		updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":       review.ID,
		"rating":   optional(review.Rating),
		"skill":    optional(review.Skill),
		"attitude": optional(review.Attitude),
		"comment":  review.Comment,
	})
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*model.Review, error) {
	return decodeOne[model.Review](r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id}))
}

// Find returns the review written by from about to for an event, of the given type
func (r *ReviewRepository) Find(ctx context.Context, eventID, from, to string, reviewType model.ReviewType) (*model.Review, error) {
	query := `SELECT * FROM review WHERE event_id = $event_id AND from_user = $from AND to_user = $to`
	vars := map[string]interface{}{"event_id": eventID, "from": from, "to": to}
	if reviewType != "" {
		query += ` AND review_type = $type`
		vars["type"] = reviewType
	}
	return decodeOne[model.Review](r.db.QueryOne(ctx, query+` LIMIT 1`, vars))
}

// ListReceived lists reviews about a user, newest first; reviewType may be empty
func (r *ReviewRepository) ListReceived(ctx context.Context, userID string, reviewType model.ReviewType, page model.Page) (*model.PageResult[*model.Review], error) {
	where := "to_user = $user_id"
	vars := map[string]interface{}{"user_id": userID, "limit": page.Limit, "start": page.Offset()}
	if reviewType != "" {
		where += " AND review_type = $type"
		vars["type"] = reviewType
	}
	query := `SELECT * FROM review WHERE ` + where + ` ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() FROM review WHERE ` + where + ` GROUP ALL;`
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &model.PageResult[*model.Review]{Items: []*model.Review{}, Page: page}, nil
		}
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	reviews, err := decodeList[model.Review](results, 0)
	if err != nil {
		return nil, err
	}
	return &model.PageResult[*model.Review]{Items: reviews, Total: extractCount(results, 1), Page: page}, nil
}
