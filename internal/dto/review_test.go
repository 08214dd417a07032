package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{float64(5), 5, true},
		{"3", 3, true},
		{json.Number("1"), 1, true},
		{float64(0), 0, false},
		{float64(6), 0, false},
		{3.5, 0, false},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseRating(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestReviewSubmitRequest_LegacyAliases(t *testing.T) {
	var req ReviewSubmitRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"fullName":" Somchai ","email":"A@B.com","company":"ACME","jobTitle":"Dev",
		"courseId":"c1","rating":4,"comment":"Nice","consent":true
	}`), &req))

	in := req.Normalize()
	assert.Equal(t, "Somchai", in.ReviewerName)
	assert.Equal(t, "A@B.com", in.ReviewerEmail)
	assert.Equal(t, "ACME", in.ReviewerCompany)
	assert.Equal(t, "Dev", in.ReviewerRole)
	assert.Equal(t, "Nice", in.Body)
	assert.True(t, in.ConsentAccepted)
	assert.Equal(t, float64(4), in.Rating)
}

func TestReviewListQuery_ActiveFilter(t *testing.T) {
	assert.Nil(t, (&ReviewListQuery{}).ActiveFilter())
	assert.True(t, *(&ReviewListQuery{Active: "1"}).ActiveFilter())
	assert.False(t, *(&ReviewListQuery{IsActive: "false", Active: "1"}).ActiveFilter())
	assert.Equal(t, 50, (&ReviewListQuery{Limit: 50}).EffectivePageSize())
}
