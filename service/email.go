package service

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"fintrack/config"
	"fintrack/models"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 未启用邮件服务
var ErrEmailDisabled = errors.New("email service disabled")

// resetEmailTmpl 重置密码邮件
var resetEmailTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="pl">
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background: #f1f5f9; padding: 24px;">
  <table role="presentation" width="100%" style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 10px;">
    <tr><td style="background: #0f766e; color: #ffffff; padding: 24px; font-size: 20px;">Fintrack</td></tr>
    <tr><td style="padding: 28px; color: #1e293b; line-height: 1.7;">
      <p>Witaj {{.Name}}!</p>
      <p>Otrzymaliśmy prośbę o zresetowanie hasła do Twojego konta.</p>
      <p><a href="{{.Link}}" style="background: #0f766e; color: #ffffff; padding: 12px 32px; border-radius: 6px; text-decoration: none;">Zresetuj hasło</a></p>
      <p style="font-size: 13px; color: #b45309;">Link jest ważny przez {{.Minutes}} minut. Jeśli to nie Ty prosiłeś o zmianę hasła, zignoruj tę wiadomość.</p>
      <p style="font-size: 12px; word-break: break-all;">{{.Link}}</p>
    </td></tr>
    <tr><td style="padding: 16px 28px; font-size: 12px; color: #64748b;">Wiadomość wygenerowana automatycznie, prosimy na nią nie odpowiadać.</td></tr>
  </table>
</body>
</html>
`))

// EmailService 通过 SMTP 发送通知邮件
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

// SendPasswordResetEmail 发送密码重置邮件
func (s *EmailService) SendPasswordResetEmail(toEmail, displayName, resetLink string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("%w: set email.enabled=true", ErrEmailDisabled)
	}
	body, err := renderResetEmail(displayName, resetLink)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Fintrack: resetowanie hasła")
	m.SetBody("text/html", body)
	return s.send(m)
}

func renderResetEmail(displayName, resetLink string) (string, error) {
	if displayName == "" {
		displayName = "Użytkowniku"
	}
	var buf bytes.Buffer
	err := resetEmailTmpl.Execute(&buf, struct {
		Name    string
		Link    string
		Minutes int
	}{displayName, resetLink, int(models.PasswordResetTTL.Minutes())})
	if err != nil {
		return "", fmt.Errorf("render reset email: %w", err)
	}
	return buf.String(), nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
