package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/pribylovaa/techblog/internal/models"
)

var funcs = template.FuncMap{
	// nl2br экранирует текст и заменяет переводы строк на <br>.
	"nl2br": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
	},
}

var tpl = template.Must(template.New("mail").Funcs(funcs).Parse(`
{{define "contact_owner"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333; border-bottom: 2px solid #0066cc; padding-bottom: 10px;">New Contact Form Submission</h2>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
  </div>
  <div style="background-color: #fff; padding: 20px; border: 1px solid #ddd; border-radius: 8px;">
    <h3 style="color: #333; margin-top: 0;">Message:</h3>
    <p style="line-height: 1.6; color: #555;">{{nl2br .Message}}</p>
  </div>
  <p style="color: #1976d2; font-size: 14px;"><strong>Reply to:</strong> {{.Email}}</p>
</div>{{end}}

{{define "contact_reply"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #0066cc; border-bottom: 2px solid #0066cc; padding-bottom: 10px;">Thank You for Reaching Out!</h2>
  <p>Hi {{.Name}},</p>
  <p>Thank you for contacting TechBlog! We've received your message about "<strong>{{.Subject}}</strong>" and will get back to you within 24 hours.</p>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #333; margin-top: 0;">Your Message:</h3>
    <p style="line-height: 1.6; color: #555;">{{nl2br .Message}}</p>
  </div>
  <p>Best regards,<br><strong>The TechBlog Team</strong></p>
</div>{{end}}

{{define "welcome"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #667eea;">Welcome to TechBlog!</h1>
  <p>Thank you for subscribing to our newsletter!</p>
  <h2 style="color: #333;">What to Expect:</h2>
  <ul>
    <li><strong>Weekly Tech Insights</strong>: latest trends, tutorials, and industry news</li>
    <li><strong>Exclusive Content</strong>: subscriber-only articles and early access</li>
    <li><strong>Tech Tips &amp; Tricks</strong>: practical advice for developers and tech enthusiasts</li>
  </ul>
  <p style="text-align: center;"><a href="{{.SiteURL}}" style="color: #667eea; font-weight: bold;">Visit TechBlog</a></p>
  <p style="color: #999; font-size: 12px;">You're receiving this because you subscribed to TechBlog newsletter.</p>
</div>{{end}}

{{define "subscriber_notice"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #667eea;">New Newsletter Subscriber!</h2>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px;">
    <p><strong>Email:</strong> {{.Email}}</p>
    <p><strong>Subscribed:</strong> {{.At}}</p>
  </div>
</div>{{end}}
`))

func render(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := tpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}

	return b.String(), nil
}

// ContactMessages возвращает письмо владельцу и автоответ отправителю.
// Поля формы экранируются шаблоном.
func ContactMessages(owner string, f models.ContactForm) ([]Message, error) {
	ownerHTML, err := render("contact_owner", f)
	if err != nil {
		return nil, err
	}

	replyHTML, err := render("contact_reply", f)
	if err != nil {
		return nil, err
	}

	return []Message{
		{To: owner, ReplyTo: f.Email, Subject: "TechBlog Contact: " + f.Subject, HTML: ownerHTML},
		{To: f.Email, Subject: "Thank you for contacting TechBlog!", HTML: replyHTML},
	}, nil
}

// SubscriptionMessages возвращает приветствие подписчику и уведомление владельцу.
func SubscriptionMessages(owner, email, siteURL string, at time.Time) ([]Message, error) {
	welcomeHTML, err := render("welcome", struct{ SiteURL string }{siteURL})
	if err != nil {
		return nil, err
	}

	noticeHTML, err := render("subscriber_notice", struct {
		Email string
		At    string
	}{email, at.UTC().Format(time.RFC1123)})
	if err != nil {
		return nil, err
	}

	return []Message{
		{To: email, Subject: "Welcome to TechBlog Newsletter! 🚀", HTML: welcomeHTML},
		{To: owner, Subject: "New Newsletter Subscriber! 📧", HTML: noticeHTML},
	}, nil
}
