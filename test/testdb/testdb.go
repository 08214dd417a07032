// Package testdb opens isolated in-memory SQLite databases with the
// application schema for package tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"reviewhub_backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated database private to t.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedCourse inserts an active course.
func SeedCourse(t *testing.T, db *gorm.DB, name string) *models.Course {
	t.Helper()
	c := &models.Course{Name: name, IsActive: true}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

// SeedReview inserts r after filling the fields every row needs.
func SeedReview(t *testing.T, db *gorm.DB, course *models.Course, r *models.Review) *models.Review {
	t.Helper()
	r.CourseID = course.ID
	if r.CourseName == "" {
		r.CourseName = course.Name
	}
	if r.ReviewerName == "" {
		r.ReviewerName = "Reviewer"
	}
	if r.ReviewerEmail == "" {
		r.ReviewerEmail = "reviewer@example.com"
	}
	r.ReviewerEmailLower = strings.ToLower(r.ReviewerEmail)
	if r.Rating == 0 {
		r.Rating = 5
	}
	if r.Body == "" && r.Headline == "" && r.Comment == "" {
		r.Body = "Helpful course"
	}
	if r.Status == "" {
		r.Status = models.ReviewStatusPending
	}
	if r.Source == "" {
		r.Source = models.ReviewSourcePublic
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return r
}
