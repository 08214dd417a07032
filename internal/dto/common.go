package dto

import (
	"reviewhub_backend/internal/models"
	"reviewhub_backend/internal/repositories"
	"reviewhub_backend/internal/upstream"
)

type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}

// ==============================
// Courses
// ==============================

type CourseOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CourseListResponse struct {
	OK    bool           `json:"ok"`
	Items []CourseOption `json:"items"`
}

// AdminCourseListResponse includes inactive courses and sync metadata.
type AdminCourseListResponse struct {
	OK    bool            `json:"ok"`
	Items []models.Course `json:"items"`
}

type CourseSyncResult struct {
	OK            bool   `json:"ok"`
	Trigger       string `json:"trigger"`
	UpstreamCount int    `json:"upstreamCount"`
	ParsedCount   int    `json:"parsedCount"`
	Upserted      int    `json:"upserted"`
	Modified      int    `json:"modified"`
}

type HealthResponse struct {
	OK       bool                 `json:"ok"`
	Database string               `json:"database"`
	Courses  HealthCourseSnapshot `json:"courses"`
}

type HealthCourseSnapshot struct {
	Total  int64          `json:"total"`
	Active int64          `json:"active"`
	Sample []CourseOption `json:"sample"`
}

// ==============================
// Uploads
// ==============================

type UploadResponse struct {
	OK        bool   `json:"ok" example:"true"`
	URL       string `json:"url" example:"https://res.cloudinary.com/demo/image/upload/v1/review-app/avatars/abc.jpg"`
	PublicID  string `json:"publicId" example:"review-app/avatars/abc"`
	StorageID string `json:"storageId" example:"review-app/avatars/abc"`
	Width     int    `json:"width" example:"512"`
	Height    int    `json:"height" example:"512"`
	Bytes     int64  `json:"bytes" example:"204800"`
	Format    string `json:"format" example:"jpg"`
}

// ==============================
// Admin auth
// ==============================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"admin@example.com"`
	Password string `json:"password" validate:"required" example:"secret"`
}

type AdminIdentity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SessionResponse struct {
	OK    bool          `json:"ok"`
	Admin AdminIdentity `json:"admin"`
}

// ==============================
// Stats
// ==============================

type StatsResponse struct {
	OK bool `json:"ok"`
	*repositories.ReviewStats
}

// ==============================
// Chat
// ==============================

type ChatTurn struct {
	Role    string `json:"role" validate:"omitempty,oneof=user assistant system"`
	Content string `json:"content" validate:"max=4000"`
}

type ChatRequest struct {
	SessionID string     `json:"sessionId" validate:"max=128"`
	Message   string     `json:"message" validate:"notblank,max=4000"`
	History   []ChatTurn `json:"history" validate:"max=50,dive"`
}

type ChatResponse struct {
	OK    bool                `json:"ok"`
	Reply *upstream.ChatReply `json:"reply"`
}

type FeedbackResponse struct {
	OK             bool `json:"ok"`
	Forwarded      bool `json:"forwarded"`
	UpstreamStatus int  `json:"upstreamStatus,omitempty"`
}
