package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSessionCompleted(toEmail, title, sessionId string, degradedPhases []int) error
	SendSessionFailed(toEmail, sessionId, reason string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // to construct links into the studio UI
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendSessionCompleted(toEmail, title, sessionId string, degradedPhases []int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your manga is ready")

	link := fmt.Sprintf("%s/sessions/%s", s.frontendURL, sessionId)
	if title == "" {
		title = "Your manga"
	}

	caveat := ""
	if len(degradedPhases) > 0 {
		caveat = "<p>Some optional production steps could not finish and used fallbacks. You can review and regenerate them from the studio.</p>"
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s is ready!</h2>
			<p>Generation finished. Open the studio to read and download it:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open in studio</a>
			%s
		</div>
	`, title, link, caveat)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send completion mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Completion mail sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendSessionFailed(toEmail, sessionId, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your manga generation could not finish")

	link := fmt.Sprintf("%s/sessions/%s", s.frontendURL, sessionId)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Generation stopped</h2>
			<p>We could not finish generating your manga:</p>
			<p style="color: #c0392b;">%s</p>
			<p>Your input is saved. You can retry from the studio:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open in studio</a>
		</div>
	`, reason, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Failure mail sent to %s\n", toEmail)
	return nil
}
