package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestReview_Score(t *testing.T) {
	t.Parallel()

	toBTC := &Review{ReviewType: ReviewCTVToBTC, Rating: intPtr(4)}
	assert.Equal(t, 4.0, toBTC.Score())

	toCTV := &Review{ReviewType: ReviewBTCToCTV, Skill: intPtr(3), Attitude: intPtr(2)}
	assert.Equal(t, 2.5, toCTV.Score())
	assert.True(t, toCTV.IsLow())

	good := &Review{ReviewType: ReviewBTCToCTV, Skill: intPtr(3), Attitude: intPtr(3)}
	assert.False(t, good.IsLow())
}

func TestReview_Validate(t *testing.T) {
	t.Parallel()

	missing := &Review{ReviewType: ReviewBTCToCTV, Skill: intPtr(6)}
	errs := missing.Validate()
	assert.Len(t, errs, 2)

	noRating := &Review{ReviewType: ReviewCTVToBTC}
	assert.Len(t, noRating.Validate(), 1)

	long := &Review{ReviewType: ReviewCTVToBTC, Rating: intPtr(5), Comment: strings.Repeat("a", 501)}
	errs = long.Validate()
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "comment", errs[0].Field)
	}

	ok := &Review{ReviewType: ReviewCTVToBTC, Rating: intPtr(5), Comment: "great"}
	assert.Empty(t, ok.Validate())
}

func TestApplicationStatus_CanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, ApplicationPending.CanTransition(ApplicationApproved))
	assert.True(t, ApplicationPending.CanTransition(ApplicationRejected))
	assert.True(t, ApplicationApproved.CanTransition(ApplicationCompleted))
	assert.True(t, ApplicationApproved.CanTransition(ApplicationNoShow))
	assert.False(t, ApplicationPending.CanTransition(ApplicationCompleted))
	assert.False(t, ApplicationRejected.CanTransition(ApplicationApproved))
	assert.False(t, ApplicationCompleted.CanTransition(ApplicationNoShow))
}

func TestApplicationStatus_IsFinished(t *testing.T) {
	t.Parallel()

	assert.True(t, ApplicationCompleted.IsFinished())
	assert.True(t, ApplicationNoShow.IsFinished())
	assert.False(t, ApplicationApproved.IsFinished())
}

func TestPage(t *testing.T) {
	t.Parallel()

	p := NewPage(0, 0)
	assert.Equal(t, Page{Page: 1, Limit: DefaultPageSize}, p)

	p = NewPage(3, 500)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 200, p.Offset())
	assert.Equal(t, 0, p.Pages(0))
	assert.Equal(t, 3, NewPage(1, 10).Pages(21))
}
