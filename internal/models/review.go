package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

type ReviewSource string

const (
	ReviewSourcePublic ReviewSource = "public"
	ReviewSourceAdmin  ReviewSource = "admin"
)

const DefaultConsentVersion = "v1"

type Review struct {
	BaseModel

	CourseID   string `gorm:"type:uuid;not null;index" json:"courseId"`
	CourseName string `gorm:"not null;default:''" json:"courseName"`

	ReviewerName       string `gorm:"not null" json:"reviewerName"`
	ReviewerEmail      string `gorm:"not null" json:"reviewerEmail"`
	ReviewerEmailLower string `gorm:"not null;index" json:"reviewerEmailLower"`
	ReviewerCompany    string `gorm:"not null;default:''" json:"reviewerCompany"`
	ReviewerRole       string `gorm:"not null;default:''" json:"reviewerRole"`

	Rating int    `gorm:"not null;index;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Body   string `gorm:"type:text;not null;default:''" json:"body"`

	// Legacy split text columns. Read through CoalesceLegacy, never written.
	Headline string `gorm:"type:text;not null;default:''" json:"-"`
	Comment  string `gorm:"type:text;not null;default:''" json:"-"`

	AvatarURL      string `gorm:"not null;default:''" json:"avatarUrl"`
	AvatarPublicID string `gorm:"not null;default:''" json:"avatarPublicId"`

	ConsentAccepted   bool       `gorm:"not null;default:false" json:"consentAccepted"`
	ConsentAcceptedAt *time.Time `json:"consentAcceptedAt,omitempty"`
	ConsentVersion    string     `gorm:"not null;default:'v1'" json:"consentVersion"`

	Status          ReviewStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	StatusUpdatedAt *time.Time   `json:"statusUpdatedAt,omitempty"`
	ApprovedAt      *time.Time   `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time   `json:"rejectedAt,omitempty"`
	RejectReason    string       `gorm:"type:text;not null;default:''" json:"rejectReason"`
	ModeratedBy     string       `gorm:"not null;default:''" json:"moderatedBy"`

	IsActive     bool       `gorm:"not null;default:false;index" json:"isActive"`
	PinnedAt     *time.Time `gorm:"index" json:"pinnedAt,omitempty"`
	DisplayOrder int        `gorm:"not null;default:0" json:"displayOrder"`

	Source ReviewSource `gorm:"type:varchar(16);not null;default:'public'" json:"source"`

	// Extra keeps unmapped fields of imported legacy records.
	Extra datatypes.JSON `json:"-"`
}

// CoalesceLegacy folds the legacy headline/comment columns into Body.
// It is the single read adapter for pre-consolidation rows.
func (r *Review) CoalesceLegacy() {
	if strings.TrimSpace(r.Body) != "" {
		r.Body = strings.TrimSpace(r.Body)
		return
	}
	comment := strings.TrimSpace(r.Comment)
	headline := strings.TrimSpace(r.Headline)
	switch {
	case comment != "" && headline != "":
		r.Body = headline + "\n" + comment
	case comment != "":
		r.Body = comment
	default:
		r.Body = headline
	}
}

// HasAvatar reports whether both avatar fields are populated.
func (r *Review) HasAvatar() bool {
	return r.AvatarURL != "" && r.AvatarPublicID != ""
}
