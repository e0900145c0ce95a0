package utils

import (
	"fmt"
	"log"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Generic Send Email
func SendEmail(to, subject, htmlBody string) error {
	cfg := config.AppConfig

	if cfg.SendGridKey == "" {
		log.Printf("SENDGRID_API_KEY not set, skipping email %q to %s", subject, to)
		return nil
	}

	from := mail.NewEmail(cfg.EmailSenderName, cfg.EmailSender)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	client := sendgrid.NewSendClient(cfg.SendGridKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Println("Error sending email:", err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("SendGrid rejected email to %s: %d %s", to, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid returned %d", resp.StatusCode)
	}

	return nil
}

// HTML wrapper shared by all outgoing mail
func getEmailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A237E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A237E; line-height: 1.6; }
			.content h2 { color: #1A237E; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #3949AB; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #3949AB; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LMS PORTAL</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 LMS Portal. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Email verification after registration
func SendVerificationEmail(email, firstName string, userID uint, token string) {
	link := fmt.Sprintf("%s/verify-email?uid=%d&token=%s", config.AppConfig.FrontendURL, userID, token)
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Welcome aboard! Please confirm your email address to activate your account.</p>
		<div class="info-box">This link expires in 24 hours.</div>
		<a href="%s" class="btn">Verify Email</a>
	`, firstName, link)

	go func() {
		if err := SendEmail(email, "Verify your email", getEmailTemplate("Verify Your Email", body)); err != nil {
			log.Println("Failed to send verification email:", err)
		}
	}()
}

// 2. Password reset
func SendPasswordResetEmail(email, firstName string, userID uint, token string) {
	link := fmt.Sprintf("%s/reset-password?uid=%d&token=%s", config.AppConfig.FrontendURL, userID, token)
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset your password. Click below to choose a new one.</p>
		<div class="info-box">This link expires in 1 hour. If you did not request this, you can safely ignore this email.</div>
		<a href="%s" class="btn">Reset Password</a>
	`, firstName, link)

	go func() {
		if err := SendEmail(email, "Reset your password", getEmailTemplate("Password Reset", body)); err != nil {
			log.Println("Failed to send password reset email:", err)
		}
	}()
}

// 3. Enrollment confirmation
func SendEnrollmentEmail(email, firstName, courseName string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<p>Head to your dashboard to see the class schedule and join your first session.</p>
	`, firstName, courseName)

	go func() {
		if err := SendEmail(email, "Enrollment confirmed", getEmailTemplate("Enrollment Confirmed", body)); err != nil {
			log.Println("Failed to send enrollment email:", err)
		}
	}()
}
