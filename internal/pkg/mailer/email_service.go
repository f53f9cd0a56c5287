package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, fullName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	appURL      string
}

func NewEmailService(host string, port int, username, password, senderName, appURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		appURL:      appURL,
	}
}

func (s *emailService) SendWelcome(toEmail, fullName string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to TempNote")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s, welcome to TempNote!</h2>
			<p>Notes you create while signed in are kept permanently.</p>
			<p>Anonymous notes still expire after 24 hours, and you can save any of them from its page.</p>
			<a href="%s" style="background-color: #111; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open TempNote</a>
		</div>
	`, fullName, s.appURL)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send welcome email to %s: %w", toEmail, err)
	}
	return nil
}
