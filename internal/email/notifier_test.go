package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	from   string
	to     []string
	body   bytes.Buffer
	closed bool
}

func (r *recordingSender) Send(from string, to []string, msg io.WriterTo) error {
	r.from = from
	r.to = to
	_, err := msg.WriteTo(&r.body)
	return err
}

func (r *recordingSender) Close() error {
	r.closed = true
	return nil
}

func TestSMTPNotifier_Sends(t *testing.T) {
	rec := &recordingSender{}
	n := NewSMTPNotifier(SMTPConfig{FromEmail: "noreply@x.io", NotifyTo: []string{"mod@x.io"}})
	n.dial = func() (gomail.SendCloser, error) { return rec, nil }

	err := n.NotifyNewReview(context.Background(), ReviewNotice{
		CourseName:   "Power BI",
		ReviewerName: "Somchai <b>",
		Rating:       5,
		Body:         "Great course",
	})
	require.NoError(t, err)

	assert.Equal(t, "noreply@x.io", rec.from)
	assert.Equal(t, []string{"mod@x.io"}, rec.to)
	assert.True(t, rec.closed)
	assert.Contains(t, rec.body.String(), "Somchai &lt;b&gt;")
	assert.Contains(t, rec.body.String(), "New 5-star review for Power BI")
}

func TestSMTPNotifier_NoRecipientsOrDialFailure(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{})
	n.dial = func() (gomail.SendCloser, error) { t.Fatal("should not dial"); return nil, nil }
	assert.NoError(t, n.NotifyNewReview(context.Background(), ReviewNotice{}))

	n = NewSMTPNotifier(SMTPConfig{NotifyTo: []string{"a@b.c"}})
	n.dial = func() (gomail.SendCloser, error) { return nil, errors.New("refused") }
	assert.Error(t, n.NotifyNewReview(context.Background(), ReviewNotice{Rating: 4}))
}

func TestTemplateManager_Unknown(t *testing.T) {
	_, err := NewTemplateManager().Render("missing", nil)
	assert.Error(t, err)
}
