package repositories

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"reviewhub_backend/internal/models"
)

// CourseUpsert is one normalized upstream catalog item.
type CourseUpsert struct {
	Name      string
	SourceID  string
	SortOrder int
	Raw       datatypes.JSON
}

type UpsertResult struct {
	Upserted int
	Modified int
}

type CourseCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type CourseRepository interface {
	ListActive(db *gorm.DB) ([]models.Course, error)
	ListAll(db *gorm.DB) ([]models.Course, error)
	FindByID(db *gorm.DB, id string) (*models.Course, error)
	BulkUpsert(db *gorm.DB, items []CourseUpsert, syncedAt time.Time) (*UpsertResult, error)
	Counts(db *gorm.DB) (*CourseCounts, error)
	RecentlyUpdated(db *gorm.DB, limit int) ([]models.Course, error)
}

type CourseRepositoryImpl struct{}

func NewCourseRepository() CourseRepository {
	return &CourseRepositoryImpl{}
}

func (r *CourseRepositoryImpl) ListActive(db *gorm.DB) ([]models.Course, error) {
	var courses []models.Course
	err := db.Where("is_active = ?", true).
		Order("sort_order ASC").Order("name ASC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepositoryImpl) ListAll(db *gorm.DB) ([]models.Course, error) {
	var courses []models.Course
	err := db.Order("is_active DESC").Order("sort_order ASC").Order("name ASC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Course, error) {
	if !isUUID(id) {
		return nil, ErrCourseNotFound
	}
	var course models.Course
	if err := db.Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// BulkUpsert matches each item by source id when present, else by name, inside
// one transaction. A row created before the catalog exposed ids is adopted by
// name. Upserted counts inserts, Modified counts updated rows.
func (r *CourseRepositoryImpl) BulkUpsert(db *gorm.DB, items []CourseUpsert, syncedAt time.Time) (*UpsertResult, error) {
	result := &UpsertResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			existing, err := findUpsertTarget(tx, item)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				course := models.Course{
					Name:      item.Name,
					IsActive:  true,
					SortOrder: item.SortOrder,
					SyncedAt:  &syncedAt,
					Upstream:  item.Raw,
				}
				if item.SourceID != "" {
					sid := item.SourceID
					course.SourceID = &sid
				}
				if err := tx.Create(&course).Error; err != nil {
					return err
				}
				result.Upserted++
			case err != nil:
				return err
			default:
				updates := map[string]interface{}{
					"name":       item.Name,
					"is_active":  true,
					"sort_order": item.SortOrder,
					"synced_at":  syncedAt,
					"upstream":   item.Raw,
				}
				if item.SourceID != "" {
					updates["source_id"] = item.SourceID
				}
				if err := tx.Model(existing).Updates(updates).Error; err != nil {
					return err
				}
				result.Modified++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *CourseRepositoryImpl) Counts(db *gorm.DB) (*CourseCounts, error) {
	var counts CourseCounts
	err := db.Model(&models.Course{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active").
		Scan(&counts).Error
	return &counts, err
}

func (r *CourseRepositoryImpl) RecentlyUpdated(db *gorm.DB, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := db.Order("updated_at DESC").Limit(limit).Find(&courses).Error
	return courses, err
}

func findUpsertTarget(tx *gorm.DB, item CourseUpsert) (*models.Course, error) {
	var existing models.Course
	if item.SourceID != "" {
		err := tx.Where("source_id = ?", item.SourceID).First(&existing).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return &existing, err
		}
		err = tx.Where("name = ? AND source_id IS NULL", item.Name).First(&existing).Error
		return &existing, err
	}
	err := tx.Where("name = ?", item.Name).First(&existing).Error
	return &existing, err
}
