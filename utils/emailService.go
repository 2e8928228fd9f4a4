package utils

import (
	"fmt"
	"log"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Generic Send Email
func SendEmail(toName, toEmail, subject, htmlBody string) error {
	from := mail.NewEmail("LMS Academy", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("[EMAIL] send failed to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("[EMAIL] send rejected for %s: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("email rejected with status %d", resp.StatusCode)
	}
	return nil
}

// HTML Wrapper (Professional Look)
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A3C34; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A3C34; line-height: 1.6; }
			.content h2 { color: #1A3C34; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LMS ACADEMY</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 LMS Academy. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---
// All triggers are best-effort: they log failures and never return them.

// 1. Enrollment confirmed (payment success)
func SendEnrollmentConfirmedEmail(email, name, batchTitle, enrollmentNo string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your enrollment in <b>%s</b> is confirmed. Welcome aboard!</p>
		<div class="info-box">Your enrollment number is <b>%s</b>. Keep it for all future correspondence.</div>
		<p>The first module of your course is already unlocked.</p>`, name, batchTitle, enrollmentNo)
	SendEmail(name, email, "Enrollment Confirmed", getEmailTemplate("Enrollment Confirmed", body))
}

// 2. Manual payment submitted, waiting for verification
func SendPaymentUnderReviewEmail(email, name, batchTitle, transactionID string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received your bank transfer details for <b>%s</b>.</p>
		<div class="info-box">Reference: <b>%s</b></div>
		<p>Our team will verify the transfer shortly. You will get a confirmation email once it is approved.</p>`, name, batchTitle, transactionID)
	SendEmail(name, email, "Payment Under Review", getEmailTemplate("Payment Under Review", body))
}

// 3. Payment failed or rejected
func SendPaymentFailedEmail(email, name, batchTitle string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Unfortunately your payment for <b>%s</b> could not be confirmed.</p>
		<p>No amount will be charged. You can try enrolling again from the course page.</p>`, name, batchTitle)
	SendEmail(name, email, "Payment Unsuccessful", getEmailTemplate("Payment Unsuccessful", body))
}
