package dto

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"reviewhub_backend/internal/models"
)

// ==============================
// Public submission
// ==============================

// ReviewSubmitRequest is the public form payload. Legacy field names
// (fullName, email, company, jobTitle, body, comment, consent) are accepted
// and folded by Normalize.
type ReviewSubmitRequest struct {
	ReviewerName    string `json:"reviewerName" example:"Somchai"`
	FullName        string `json:"fullName,omitempty"`
	ReviewerEmail   string `json:"reviewerEmail" example:"a@b.com"`
	Email           string `json:"email,omitempty"`
	ReviewerCompany string `json:"reviewerCompany" example:"ACME"`
	Company         string `json:"company,omitempty"`
	ReviewerRole    string `json:"reviewerRole" example:"Analyst"`
	JobTitle        string `json:"jobTitle,omitempty"`

	CourseID string      `json:"courseId" example:"4b0a..."`
	Rating   interface{} `json:"rating" swaggertype:"integer" example:"5"`

	ReviewText string `json:"reviewText" example:"Great course"`
	Body       string `json:"body,omitempty"`
	Comment    string `json:"comment,omitempty"`

	AvatarURL      string `json:"avatarUrl,omitempty"`
	AvatarPublicID string `json:"avatarPublicId,omitempty"`

	ConsentAccepted *bool `json:"consentAccepted" example:"true"`
	Consent         *bool `json:"consent,omitempty"`
}

// ReviewInput is the canonical review payload handed to the lifecycle engine.
type ReviewInput struct {
	CourseID        string
	ReviewerName    string
	ReviewerEmail   string
	ReviewerCompany string
	ReviewerRole    string
	Rating          interface{}
	Body            string
	AvatarURL       string
	AvatarPublicID  string
	ConsentAccepted bool
	ConsentVersion  string
}

func (r *ReviewSubmitRequest) Normalize() ReviewInput {
	consent := false
	switch {
	case r.ConsentAccepted != nil:
		consent = *r.ConsentAccepted
	case r.Consent != nil:
		consent = *r.Consent
	}
	return ReviewInput{
		CourseID:        strings.TrimSpace(r.CourseID),
		ReviewerName:    firstNonBlank(r.ReviewerName, r.FullName),
		ReviewerEmail:   firstNonBlank(r.ReviewerEmail, r.Email),
		ReviewerCompany: firstNonBlank(r.ReviewerCompany, r.Company),
		ReviewerRole:    firstNonBlank(r.ReviewerRole, r.JobTitle),
		Rating:          r.Rating,
		Body:            firstNonBlank(r.ReviewText, r.Body, r.Comment),
		AvatarURL:       strings.TrimSpace(r.AvatarURL),
		AvatarPublicID:  strings.TrimSpace(r.AvatarPublicID),
		ConsentAccepted: consent,
	}
}

// ==============================
// Admin create / update
// ==============================

type AdminReviewCreateRequest struct {
	ReviewSubmitRequest
	Status         string `json:"status" validate:"review_status" example:"approved"`
	IsActive       *bool  `json:"isActive,omitempty"`
	ConsentVersion string `json:"consentVersion,omitempty"`
	DisplayOrder   int    `json:"displayOrder,omitempty"`
}

// AdminReviewPatch is a partial update. Nil fields are left untouched.
type AdminReviewPatch struct {
	CourseID        *string     `json:"courseId,omitempty"`
	ReviewerName    *string     `json:"reviewerName,omitempty"`
	ReviewerEmail   *string     `json:"reviewerEmail,omitempty"`
	ReviewerCompany *string     `json:"reviewerCompany,omitempty"`
	ReviewerRole    *string     `json:"reviewerRole,omitempty"`
	Rating          interface{} `json:"rating,omitempty" swaggertype:"integer"`
	ReviewText      *string     `json:"reviewText,omitempty"`
	Body            *string     `json:"body,omitempty"`

	AvatarAction   *string `json:"avatarAction,omitempty" validate:"omitempty,oneof=remove keep" example:"remove"`
	AvatarURL      *string `json:"avatarUrl,omitempty"`
	AvatarPublicID *string `json:"avatarPublicId,omitempty"`

	Action       *string `json:"action,omitempty" validate:"omitempty,review_action" example:"approve"`
	Status       *string `json:"status,omitempty" validate:"omitempty,review_status"`
	RejectReason *string `json:"rejectReason,omitempty"`
	Reason       *string `json:"reason,omitempty"`

	IsActive     *bool `json:"isActive,omitempty"`
	DisplayOrder *int  `json:"displayOrder,omitempty"`
}

// Text returns the patched review text, preferring reviewText over body.
func (p *AdminReviewPatch) Text() *string {
	if p.ReviewText != nil {
		return p.ReviewText
	}
	return p.Body
}

// RejectReasonText prefers rejectReason over reason.
func (p *AdminReviewPatch) RejectReasonText() *string {
	if p.RejectReason != nil {
		return p.RejectReason
	}
	return p.Reason
}

// ==============================
// Listing & export
// ==============================

type ReviewListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Limit    int    `form:"limit"`
	CourseID string `form:"courseId"`
	IsActive string `form:"isActive" validate:"omitempty,oneof=1 0 true false all"`
	Active   string `form:"active" validate:"omitempty,oneof=1 0 true false all"`
	Status   string `form:"status" validate:"omitempty,review_status"`
	Q        string `form:"q" validate:"max=200"`
	From     string `form:"from" validate:"day"`
	To       string `form:"to" validate:"day"`
}

// ActiveFilter resolves isActive/active into a tri-state.
func (q *ReviewListQuery) ActiveFilter() *bool {
	v := q.IsActive
	if v == "" {
		v = q.Active
	}
	switch v {
	case "1", "true":
		t := true
		return &t
	case "0", "false":
		f := false
		return &f
	}
	return nil
}

// EffectivePageSize prefers pageSize over limit.
func (q *ReviewListQuery) EffectivePageSize() int {
	if q.PageSize != 0 {
		return q.PageSize
	}
	return q.Limit
}

type PaginatedResponse struct {
	OK       bool        `json:"ok"`
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Pages    int         `json:"totalPages"`
}

// ==============================
// Projections
// ==============================

// PublicReview is the landing page projection. It never carries the
// reviewer email, storage ids or moderation fields.
type PublicReview struct {
	ID              string    `json:"id"`
	ReviewerName    string    `json:"reviewerName"`
	ReviewerCompany string    `json:"reviewerCompany"`
	ReviewerRole    string    `json:"reviewerRole"`
	CourseName      string    `json:"courseName"`
	Rating          int       `json:"rating"`
	Body            string    `json:"body"`
	AvatarURL       string    `json:"avatarUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AdminReview is the full record plus derived display URLs.
type AdminReview struct {
	*models.Review
	AvatarThumbURL string `json:"avatarThumbUrl"`
	AvatarFullURL  string `json:"avatarFullUrl"`
}

type PublicReviewListResponse struct {
	OK    bool           `json:"ok"`
	Items []PublicReview `json:"items"`
}

type ReviewItemResponse struct {
	OK   bool         `json:"ok"`
	Item *AdminReview `json:"item"`
}

type CreatedResponse struct {
	OK bool   `json:"ok" example:"true"`
	ID string `json:"id" example:"4b0a..."`
}

// ==============================
// Helpers
// ==============================

// ParseRating accepts integers 1..5 given as a JSON number or a numeric
// string. Fractions, other strings and out-of-range values are rejected.
func ParseRating(v interface{}) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > 5 {
		return 0, false
	}
	return int(f), true
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
