package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesceLegacy(t *testing.T) {
	cases := []struct {
		name     string
		review   Review
		expected string
	}{
		{"body wins", Review{Body: " unified ", Comment: "old"}, "unified"},
		{"comment only", Review{Comment: "old comment"}, "old comment"},
		{"headline only", Review{Headline: "Title"}, "Title"},
		{"headline and comment", Review{Headline: "Title", Comment: "text"}, "Title\ntext"},
		{"nothing", Review{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.review
			r.CoalesceLegacy()
			assert.Equal(t, tc.expected, r.Body)
		})
	}
}

func TestReviewStatusValid(t *testing.T) {
	assert.True(t, ReviewStatusPending.Valid())
	assert.True(t, ReviewStatusApproved.Valid())
	assert.True(t, ReviewStatusRejected.Valid())
	assert.False(t, ReviewStatus("archived").Valid())
}
