package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTVProfile_AddReview_RunningAverage(t *testing.T) {
	t.Parallel()

	p := &CTVProfile{}
	p.AddReview(4)
	p.AddReview(5)

	assert.Equal(t, 4.5, p.Reputation.Score)
	assert.Equal(t, 2, p.Reputation.TotalReviews)
}

func TestCTVProfile_ReplaceReview(t *testing.T) {
	t.Parallel()

	p := &CTVProfile{Reputation: Reputation{Score: 4, TotalReviews: 2}}
	p.ReplaceReview(3, 5)

	assert.Equal(t, 5.0, p.Reputation.Score)
	assert.Equal(t, 2, p.Reputation.TotalReviews)
}

func TestCTVProfile_RemoveReview(t *testing.T) {
	t.Parallel()

	p := &CTVProfile{Reputation: Reputation{Score: 4, TotalReviews: 2}}
	p.RemoveReview(5)

	assert.Equal(t, 3.0, p.Reputation.Score)
	assert.Equal(t, 1, p.Reputation.TotalReviews)

	p.RemoveReview(3)
	assert.Equal(t, 0.0, p.Reputation.Score)
	assert.Equal(t, 0, p.Reputation.TotalReviews)

	// Removing from an empty average stays at zero
	p.RemoveReview(4)
	assert.Equal(t, 0, p.Reputation.TotalReviews)
}

func TestCTVProfile_AdjustTrust_Clamps(t *testing.T) {
	t.Parallel()

	p := &CTVProfile{TrustScore: TrustScoreDefault}
	p.AdjustTrust(TrustDeltaCompleted)
	assert.Equal(t, TrustScoreMax, p.TrustScore)

	p.TrustScore = 1
	p.AdjustTrust(TrustDeltaNoShow)
	assert.Equal(t, TrustScoreMin, p.TrustScore)

	p.TrustScore = 7
	p.AdjustTrust(TrustDeltaLowReview)
	assert.Equal(t, 5.0, p.TrustScore)
}

func TestCTVProfile_HasJoined(t *testing.T) {
	t.Parallel()

	p := &CTVProfile{JoinedEvents: []JoinedEvent{{EventID: "event:1", Role: "Usher", JoinedAt: time.Now()}}}

	assert.True(t, p.HasJoined("event:1"))
	assert.False(t, p.HasJoined("event:2"))
}

func TestBTCProfile_Rating(t *testing.T) {
	t.Parallel()

	p := &BTCProfile{}
	p.AddReview(5)
	p.AddReview(4)
	p.AddReview(3)
	assert.Equal(t, 4.0, p.Rating.Average)
	assert.Equal(t, 3, p.Rating.TotalReviews)

	p.ReplaceReview(3, 5)
	assert.InDelta(t, 14.0/3, p.Rating.Average, 1e-9)

	p.RemoveReview(5)
	assert.InDelta(t, 4.5, p.Rating.Average, 1e-9)
	assert.Equal(t, 2, p.Rating.TotalReviews)
}

func TestCTVProfile_ReputationRecoversExactly(t *testing.T) {
	t.Parallel()

	p := &CTVProfile{}
	p.AddReview(1)
	p.AddReview(2)
	p.AddReview(2)
	p.RemoveReview(1)
	assert.InDelta(t, 2.0, p.Reputation.Score, 1e-9)
	assert.Equal(t, 2, p.Reputation.TotalReviews)

	p.ReplaceReview(2, 2)
	assert.InDelta(t, 2.0, p.Reputation.Score, 1e-9)
}

func TestRating_JSONRoundsForDisplay(t *testing.T) {
	t.Parallel()

	p := &BTCProfile{}
	p.AddReview(5)
	p.AddReview(4)
	p.AddReview(4)
	assert.InDelta(t, 13.0/3, p.Rating.Average, 1e-9)

	out, err := json.Marshal(p.Rating)
	require.NoError(t, err)
	assert.JSONEq(t, `{"average":4.33,"total_reviews":3}`, string(out))

	out, err = json.Marshal(Reputation{Score: 2.0 / 3, TotalReviews: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0.67,"total_reviews":3}`, string(out))
}

func TestBTCProfile_RatingStaysInBounds(t *testing.T) {
	t.Parallel()

	p := &BTCProfile{Rating: Rating{Average: 5, TotalReviews: 1}}
	p.ReplaceReview(1, 5)

	assert.Equal(t, RatingMax, p.Rating.Average)
}
