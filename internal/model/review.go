package model

import "time"

// ReviewType tells which side wrote the review
type ReviewType string

const (
	ReviewBTCToCTV ReviewType = "BTC_TO_CTV" // Organizer rates a collaborator
	ReviewCTVToBTC ReviewType = "CTV_TO_BTC" // Collaborator rates an organizer
)

// Score bounds for every review dimension
const (
	ReviewScoreMin = 1
	ReviewScoreMax = 5
)

// Review is feedback left after an event
type Review struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	FromUser   string     `json:"from_user"`
	ToUser     string     `json:"to_user"`
	ReviewType ReviewType `json:"review_type"`
	Rating     *int       `json:"rating,omitempty"`   // CTV_TO_BTC
	Skill      *int       `json:"skill,omitempty"`    // BTC_TO_CTV
	Attitude   *int       `json:"attitude,omitempty"` // BTC_TO_CTV
	Comment    string     `json:"comment,omitempty"`
	CreatedOn  time.Time  `json:"created_on"`
	UpdatedOn  time.Time  `json:"updated_on"`
}

// Score is the value folded into the reviewee's average
func (r *Review) Score() float64 {
	switch r.ReviewType {
	case ReviewCTVToBTC:
		if r.Rating != nil {
			return float64(*r.Rating)
		}
	case ReviewBTCToCTV:
		if r.Skill != nil && r.Attitude != nil {
			return float64(*r.Skill+*r.Attitude) / 2
		}
	}
	return 0
}

// IsLow reports whether an organizer review pulls the collaborator's trust down
func (r *Review) IsLow() bool {
	return r.ReviewType == ReviewBTCToCTV && r.Score() < LowReviewThreshold
}

// Validate checks the dimensions required by the review type
func (r *Review) Validate() []FieldError {
	var errs []FieldError
	inRange := func(v *int) bool { return v != nil && *v >= ReviewScoreMin && *v <= ReviewScoreMax }

	switch r.ReviewType {
	case ReviewCTVToBTC:
		if !inRange(r.Rating) {
			errs = append(errs, FieldError{Field: "rating", Message: "rating must be between 1 and 5"})
		}
	case ReviewBTCToCTV:
		if !inRange(r.Skill) {
			errs = append(errs, FieldError{Field: "skill", Message: "skill must be between 1 and 5"})
		}
		if !inRange(r.Attitude) {
			errs = append(errs, FieldError{Field: "attitude", Message: "attitude must be between 1 and 5"})
		}
	default:
		errs = append(errs, FieldError{Field: "review_type", Message: "unknown review type"})
	}
	if len([]rune(r.Comment)) > MaxReviewComment {
		errs = append(errs, FieldError{Field: "comment", Message: "comment must be at most 500 characters"})
	}
	return errs
}

// ReviewWithAuthor is a review plus a display name for its author
type ReviewWithAuthor struct {
	*Review
	AuthorName   string  `json:"author_name,omitempty"`
	AuthorAvatar *string `json:"author_avatar,omitempty"`
	EventTitle   string  `json:"event_title,omitempty"`
}

// ReviewCheck answers whether a user already reviewed someone for an event
type ReviewCheck struct {
	HasReviewed bool    `json:"has_reviewed"`
	Review      *Review `json:"review"`
}
