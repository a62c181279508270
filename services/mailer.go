package services

import (
	"bytes"
	"html/template"

	"main/config"
	"main/model"

	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers reminder e-mails over SMTP. A nil *Mailer is valid
// and means e-mail delivery is not configured.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a Mailer from config, or nil when credentials are
// absent.
func NewMailer(cfg config.MailerConfig) *Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a rendered message. Transport errors are returned to
// the caller, which treats them as non-fatal.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

const reminderSubject = "Instagram Note Reminder"

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #0095f6;">Instagram Note Reminder</h2>

  <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Your Note:</h3>
    <p style="font-size: 16px; color: #333;">{{.NoteText}}</p>
  </div>

  <div style="margin: 20px 0;">
    <p><strong>Instagram Post:</strong></p>
    <a href="{{.URL}}" style="color: #0095f6; text-decoration: none;">{{.URL}}</a>
  </div>

  {{if .Caption}}
  <div style="background: #fff3cd; padding: 15px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Post Caption:</strong></p>
    <p style="color: #856404;">{{.Caption}}</p>
  </div>
  {{end}}

  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.URL}}" style="background: #0095f6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">
      View Instagram Post
    </a>
  </div>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #666; font-size: 12px;">
    This reminder was set on {{.CreatedAt}}
  </p>
</div>
`))

type reminderEmailData struct {
	NoteText  string
	URL       string
	Caption   string
	CreatedAt string
}

// RenderReminderEmail builds the HTML body for a due reminder. Long
// captions are truncated at 200 characters.
func RenderReminderEmail(note *model.Note) (subject, htmlBody string, err error) {
	noteText := note.Note
	if noteText == "" {
		noteText = "No note added"
	}

	caption := note.PostDetails.Caption
	if runes := []rune(caption); len(runes) > 200 {
		caption = string(runes[:200]) + "..."
	}

	var buf bytes.Buffer
	err = reminderTemplate.Execute(&buf, reminderEmailData{
		NoteText:  noteText,
		URL:       note.URL,
		Caption:   caption,
		CreatedAt: note.CreatedAt.Format("1/2/2006"),
	})
	if err != nil {
		return "", "", err
	}
	return reminderSubject, buf.String(), nil
}
