package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"dealdesk/config"
	"dealdesk/models"

	"gopkg.in/gomail.v2"
)

// Embedded email templates
var emailTemplates = map[string]string{
	"notification_digest": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .item { margin: 14px 0; padding: 10px; border-left: 3px solid #3B82F6; background: #f8fafc; }
        .item-title { font-weight: bold; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>{{.Subject}}</h2>
    </div>

    {{range .Items}}
    <div class="item">
        <div class="item-title">{{.Title}}</div>
        <div>{{.Message}}</div>
    </div>
    {{end}}

    <div class="footer">
        <p>You are receiving this because of activity on your DealDesk account.</p>
        <p>© {{.Year}} DealDesk. All rights reserved.</p>
    </div>
</body>
</html>`,
}

type digestData struct {
	Subject string
	Items   []models.Notification
	Year    int
}

// Mailer delivers notification digests over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer() *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(
			config.AppConfig.SMTPHost,
			config.AppConfig.SMTPPort,
			config.AppConfig.SMTPUsername,
			config.AppConfig.SMTPPassword,
		),
		from: config.AppConfig.FromEmail,
	}
}

// SendNotificationDigest renders and sends the unread notifications for
// one user as a single email.
func (m *Mailer) SendNotificationDigest(to string, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}

	tmpl, err := template.New("digest").Parse(emailTemplates["notification_digest"])
	if err != nil {
		return fmt.Errorf("failed to parse digest template: %w", err)
	}

	subject := fmt.Sprintf("DealDesk: %d new update(s)", len(items))
	var body bytes.Buffer
	if err := tmpl.Execute(&body, digestData{
		Subject: subject,
		Items:   items,
		Year:    time.Now().Year(),
	}); err != nil {
		return fmt.Errorf("failed to render digest template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send digest to %s: %w", to, err)
	}
	return nil
}
