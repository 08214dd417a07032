package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const TemplateNewReview = "new_review"

const newReviewTemplate = `<p>A new review is waiting for moderation.</p>
<table>
<tr><td>Course</td><td>{{.CourseName}}</td></tr>
<tr><td>Reviewer</td><td>{{.ReviewerName}}{{if .ReviewerCompany}} ({{.ReviewerCompany}}){{end}}</td></tr>
<tr><td>Rating</td><td>{{.Rating}} / 5</td></tr>
</table>
<blockquote>{{.Body}}</blockquote>
{{if .AdminURL}}<p><a href="{{.AdminURL}}">Open in admin</a></p>{{end}}`

// TemplateManager holds parsed html templates by name.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager returns a manager preloaded with the built-in templates.
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	if err := tm.AddTemplate(TemplateNewReview, newReviewTemplate); err != nil {
		panic(err)
	}
	return tm
}

func (tm *TemplateManager) Render(name string, data interface{}) (string, error) {
	tm.mutex.RLock()
	tpl, ok := tm.templates[name]
	tm.mutex.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (tm *TemplateManager) AddTemplate(name, text string) error {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}
