package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// ReviewNotice is the data rendered into the new-review mail.
type ReviewNotice struct {
	ReviewID        string
	CourseName      string
	ReviewerName    string
	ReviewerCompany string
	Rating          int
	Body            string
	AdminURL        string
}

type Notifier interface {
	NotifyNewReview(ctx context.Context, n ReviewNotice) error
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyNewReview(context.Context, ReviewNotice) error { return nil }

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	NotifyTo  []string
}

// SMTPNotifier sends moderation notices through gomail.
type SMTPNotifier struct {
	cfg       SMTPConfig
	templates *TemplateManager
	dial      func() (gomail.SendCloser, error)
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPNotifier{cfg: cfg, templates: NewTemplateManager(), dial: d.Dial}
}

func (s *SMTPNotifier) NotifyNewReview(ctx context.Context, n ReviewNotice) error {
	if len(s.cfg.NotifyTo) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := s.templates.Render(TemplateNewReview, n)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.NotifyTo...)
	m.SetHeader("Subject", subjectFor(n))
	m.SetBody("text/html", html)

	sc, err := s.dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer sc.Close()

	return gomail.Send(sc, m)
}

func subjectFor(n ReviewNotice) string {
	course := strings.TrimSpace(n.CourseName)
	if course == "" {
		course = "a course"
	}
	return fmt.Sprintf("New %d-star review for %s", n.Rating, course)
}
