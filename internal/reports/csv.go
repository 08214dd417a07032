package reports

import (
	"encoding/csv"
	"io"
	"strconv"

	"reviewhub_backend/internal/models"
)

const (
	ExportFilename    = "reviews_export.csv"
	ExportContentType = "text/csv; charset=utf-8"
)

// utf8BOM lets spreadsheet apps detect UTF-8 for Thai text.
const utf8BOM = "\uFEFF"

var exportHeader = []string{
	"createdAt(BKK)", "courseName", "rating", "reviewerName",
	"reviewerCompany", "reviewerRole", "body", "isActive",
}

// WriteReviewsCSV writes the BOM, the fixed header and one row per review.
func WriteReviewsCSV(w io.Writer, reviews []models.Review) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i := range reviews {
		if err := cw.Write(reviewRow(&reviews[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func reviewRow(r *models.Review) []string {
	active := "0"
	if r.IsActive {
		active = "1"
	}
	return []string{
		FormatThai(r.CreatedAt),
		r.CourseName,
		strconv.Itoa(r.Rating),
		r.ReviewerName,
		r.ReviewerCompany,
		r.ReviewerRole,
		r.Body,
		active,
	}
}
