package model

import (
	"encoding/json"
	"math"
	"time"
)

// Gender of a collaborator
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Trust score bounds
const (
	TrustScoreDefault = 10.0
	TrustScoreMin     = 0.0
	TrustScoreMax     = 10.0
)

// Trust score deltas applied by application and review outcomes
const (
	TrustDeltaCompleted = 1.0
	TrustDeltaNoShow    = -2.0
	TrustDeltaLowReview = -2.0
)

// Rating bounds shared by reputation and organizer rating
const (
	RatingMin = 0.0
	RatingMax = 5.0
)

// LowReviewThreshold is the review average below which a collaborator loses trust
const LowReviewThreshold = 3.0

// NoShowRole is recorded in joined events for collaborators reported as no-show
const NoShowRole = "No-show"

// JoinedEvent records participation of a collaborator in an event
type JoinedEvent struct {
	EventID  string    `json:"event_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Reputation is the running average of organizer reviews for a collaborator
type Reputation struct {
	Score        float64 `json:"score"`
	TotalReviews int     `json:"total_reviews"`
}

// Rating is the running average of collaborator reviews for an organizer
type Rating struct {
	Average      float64 `json:"average"`
	TotalReviews int     `json:"total_reviews"`
}

// The stored averages stay unrounded; responses show two decimals.

func (r Reputation) MarshalJSON() ([]byte, error) {
	type plain Reputation
	r.Score = roundRating(r.Score)
	return json.Marshal(plain(r))
}

func (r Rating) MarshalJSON() ([]byte, error) {
	type plain Rating
	r.Average = roundRating(r.Average)
	return json.Marshal(plain(r))
}

// CTVProfile is the collaborator profile (the "CV")
type CTVProfile struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	FullName     string        `json:"full_name"`
	Avatar       *string       `json:"avatar,omitempty"`
	Gender       Gender        `json:"gender"`
	Address      *string       `json:"address,omitempty"`
	DateOfBirth  *time.Time    `json:"date_of_birth,omitempty"`
	Skills       []string      `json:"skills"`
	Experiences  []string      `json:"experiences"`
	JoinedEvents []JoinedEvent `json:"joined_events"`
	Reputation   Reputation    `json:"reputation"`
	TrustScore   float64       `json:"trust_score"`
	CreatedOn    time.Time     `json:"created_on"`
	UpdatedOn    time.Time     `json:"updated_on"`
}

// AddReview folds a new review score into the reputation running average
func (p *CTVProfile) AddReview(score float64) {
	p.Reputation.Score, p.Reputation.TotalReviews = addToAverage(p.Reputation.Score, p.Reputation.TotalReviews, score)
}

// ReplaceReview swaps an existing review score for a new one
func (p *CTVProfile) ReplaceReview(oldScore, newScore float64) {
	p.Reputation.Score = replaceInAverage(p.Reputation.Score, p.Reputation.TotalReviews, oldScore, newScore)
}

// RemoveReview takes a review score out of the running average
func (p *CTVProfile) RemoveReview(score float64) {
	p.Reputation.Score, p.Reputation.TotalReviews = removeFromAverage(p.Reputation.Score, p.Reputation.TotalReviews, score)
}

// AdjustTrust applies a delta to the trust score, clamped to its bounds
func (p *CTVProfile) AdjustTrust(delta float64) {
	p.TrustScore = clamp(p.TrustScore+delta, TrustScoreMin, TrustScoreMax)
}

// HasJoined reports whether the event is already in the joined list
func (p *CTVProfile) HasJoined(eventID string) bool {
	for _, je := range p.JoinedEvents {
		if je.EventID == eventID {
			return true
		}
	}
	return false
}

// BTCProfile is the organizer profile
type BTCProfile struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	AgencyName       string    `json:"agency_name"`
	Logo             *string   `json:"logo,omitempty"`
	Address          *string   `json:"address,omitempty"`
	Website          *string   `json:"website,omitempty"`
	Fanpage          *string   `json:"fanpage,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Verified         bool      `json:"verified"`
	SuccessfulEvents []string  `json:"successful_events"`
	Rating           Rating    `json:"rating"`
	CreatedOn        time.Time `json:"created_on"`
	UpdatedOn        time.Time `json:"updated_on"`
}

// AddReview folds a new rating into the organizer average
func (p *BTCProfile) AddReview(rating float64) {
	p.Rating.Average, p.Rating.TotalReviews = addToAverage(p.Rating.Average, p.Rating.TotalReviews, rating)
}

// ReplaceReview swaps an existing rating for a new one
func (p *BTCProfile) ReplaceReview(oldRating, newRating float64) {
	p.Rating.Average = replaceInAverage(p.Rating.Average, p.Rating.TotalReviews, oldRating, newRating)
}

// RemoveReview takes a rating out of the organizer average
func (p *BTCProfile) RemoveReview(rating float64) {
	p.Rating.Average, p.Rating.TotalReviews = removeFromAverage(p.Rating.Average, p.Rating.TotalReviews, rating)
}

func addToAverage(avg float64, n int, value float64) (float64, int) {
	next := (avg*float64(n) + value) / float64(n+1)
	return clamp(next, RatingMin, RatingMax), n + 1
}

func replaceInAverage(avg float64, n int, oldValue, newValue float64) float64 {
	if n <= 0 {
		return clamp(newValue, RatingMin, RatingMax)
	}
	next := (avg*float64(n) - oldValue + newValue) / float64(n)
	return clamp(next, RatingMin, RatingMax)
}

func removeFromAverage(avg float64, n int, value float64) (float64, int) {
	if n <= 1 {
		return 0, 0
	}
	next := (avg*float64(n) - value) / float64(n-1)
	return clamp(next, RatingMin, RatingMax), n - 1
}

// roundRating rounds to two decimals for display
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ProfileSummary is the short collaborator shape attached to applications
type ProfileSummary struct {
	UserID     string     `json:"user_id"`
	FullName   string     `json:"full_name"`
	Avatar     *string    `json:"avatar,omitempty"`
	Gender     Gender     `json:"gender"`
	Skills     []string   `json:"skills"`
	Reputation Reputation `json:"reputation"`
	TrustScore float64    `json:"trust_score"`
}

// Summary returns the short shape of the collaborator profile
func (p *CTVProfile) Summary() *ProfileSummary {
	return &ProfileSummary{
		UserID:     p.UserID,
		FullName:   p.FullName,
		Avatar:     p.Avatar,
		Gender:     p.Gender,
		Skills:     p.Skills,
		Reputation: p.Reputation,
		TrustScore: p.TrustScore,
	}
}
