// File: /services/email_service.go
package services

import (
	"crypto/rand"
	"eldtrip-api/config"
	"fmt"
	"math/big"
	"sync"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer

	// In-memory storage for verification codes
	verificationCodes map[string]VerificationCode
	mutex             sync.RWMutex
}

type VerificationCode struct {
	Code      string    `json:"code"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	service := &EmailService{
		config:            cfg,
		dialer:            dialer,
		verificationCodes: make(map[string]VerificationCode),
	}

	// Start cleanup goroutine
	go service.cleanupExpiredCodes()

	return service
}

// Generate a random 4-digit verification code
func (es *EmailService) generateVerificationCode() string {
	const digits = "0123456789"
	code := make([]byte, 4)

	for i := range code {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		code[i] = digits[num.Int64()]
	}

	return string(code)
}

// Send verification email
func (es *EmailService) SendVerificationEmail(email, name string) (string, error) {
	// Check if there's already a valid unused code
	es.mutex.RLock()
	existingCode, exists := es.verificationCodes[email]
	es.mutex.RUnlock()

	var code string
	if exists && !existingCode.Used && time.Now().Before(existingCode.ExpiresAt) {
		// Reuse existing valid code
		code = existingCode.Code
		fmt.Printf("📧 Reusing existing verification code for %s: %s\n", email, code)
	} else {
		// Generate new code
		code = es.generateVerificationCode()

		// Store verification code (expires in 10 minutes)
		es.mutex.Lock()
		es.verificationCodes[email] = VerificationCode{
			Code:      code,
			Email:     email,
			ExpiresAt: time.Now().Add(10 * time.Minute),
			Used:      false,
		}
		es.mutex.Unlock()
		fmt.Printf("📧 Generated new verification code for %s: %s\n", email, code)
	}

	// Create email message
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "ELD Trip Planner - Email Verification")

	// HTML email template
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Email Verification</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: #1d4ed8; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .code { background: #e9ecef; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0; }
        .code-number { font-size: 32px; font-weight: bold; color: #1d4ed8; letter-spacing: 8px; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🚛 ELD Trip Planner</h1>
            <p>Email Verification</p>
        </div>
        <div class="content">
            <h2>Hello %s!</h2>
            <p>Welcome to ELD Trip Planner! Please verify your email address to complete your registration.</p>

            <div class="code">
                <p><strong>Your verification code is:</strong></p>
                <div class="code-number">%s</div>
                <p><small>This code will expire in 10 minutes.</small></p>
            </div>

            <p>Enter this code in the app to verify your email address.</p>

            <p>If you didn't create an account with ELD Trip Planner, please ignore this email.</p>

            <p>Safe travels! 🚛</p>
            <p><strong>The ELD Trip Planner Team</strong></p>
        </div>
        <div class="footer">
            <p>© 2025 ELD Trip Planner. All rights reserved.</p>
            <p>This is an automated email, please do not reply.</p>
        </div>
    </div>
</body>
</html>`, name, code)

	// Plain text alternative
	textBody := fmt.Sprintf(`
Hello %s!

Welcome to ELD Trip Planner! Please verify your email address to complete your registration.

Your verification code is: %s

This code will expire in 10 minutes.

Enter this code in the app to verify your email address.

If you didn't create an account with ELD Trip Planner, please ignore this email.

Safe travels!
The ELD Trip Planner Team

© 2025 ELD Trip Planner. All rights reserved.
This is an automated email, please do not reply.
    `, name, code)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	// Send email
	if err := es.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("📧 Verification email sent to %s with code: %s\n", email, code)
	return code, nil
}

// Verify the code
func (es *EmailService) VerifyCode(email, inputCode string) bool {
	es.mutex.RLock()
	storedCode, exists := es.verificationCodes[email]
	es.mutex.RUnlock()

	if !exists {
		fmt.Printf("❌ No verification code found for email: %s\n", email)
		return false
	}

	if storedCode.Used {
		fmt.Printf("❌ Verification code already used for: %s\n", email)
		return false
	}

	if time.Now().After(storedCode.ExpiresAt) {
		fmt.Printf("❌ Verification code expired for: %s\n", email)
		es.mutex.Lock()
		delete(es.verificationCodes, email)
		es.mutex.Unlock()
		return false
	}

	if storedCode.Code != inputCode {
		fmt.Printf("❌ Invalid verification code for %s\n", email)
		return false
	}

	// Mark as used
	es.mutex.Lock()
	storedCode.Used = true
	es.verificationCodes[email] = storedCode
	es.mutex.Unlock()

	fmt.Printf("✅ Verification code verified successfully for: %s\n", email)
	return true
}

// Get verification code for testing/debugging
func (es *EmailService) GetVerificationCode(email string) string {
	es.mutex.RLock()
	defer es.mutex.RUnlock()

	if code, exists := es.verificationCodes[email]; exists && !code.Used && time.Now().Before(code.ExpiresAt) {
		return code.Code
	}
	return ""
}

// Cleanup expired verification codes
func (es *EmailService) cleanupExpiredCodes() {
	ticker := time.NewTicker(5 * time.Minute) // Run every 5 minutes
	defer ticker.Stop()

	for range ticker.C {
		es.mutex.Lock()
		now := time.Now()
		for email, code := range es.verificationCodes {
			if now.After(code.ExpiresAt) || code.Used {
				delete(es.verificationCodes, email)
				fmt.Printf("🗑️ Cleaned up verification code for: %s\n", email)
			}
		}
		es.mutex.Unlock()
	}
}

// Send welcome email after successful verification
func (es *EmailService) SendWelcomeEmail(email, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to ELD Trip Planner! 🚛")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome to ELD Trip Planner</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: linear-gradient(135deg, #1d4ed8, #1e40af); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .feature { background: white; padding: 20px; margin: 15px 0; border-radius: 8px; border-left: 4px solid #1d4ed8; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🚛 Welcome to ELD Trip Planner!</h1>
            <p>HOS-compliant trip planning made simple</p>
        </div>
        <div class="content">
            <h2>Hello %s!</h2>
            <p>🎉 Congratulations! Your email has been verified and your account is now active.</p>

            <h3>What you can do now:</h3>

            <div class="feature">
                <h4>🗺️ Plan Compliant Trips</h4>
                <p>Enter your current location, pickup and dropoff and get a route with every mandated break, rest and fuel stop placed for you.</p>
            </div>

            <div class="feature">
                <h4>📋 Generate ELD Logs</h4>
                <p>Daily log sheets are drawn up automatically for every day of your trip, with duty-status totals and odometer readings.</p>
            </div>

            <div class="feature">
                <h4>⏱️ Track Your Hours</h4>
                <p>See your remaining cycle, driving and on-duty hours at a glance before you commit to a load.</p>
            </div>

            <p>Ready to plan your first trip? Log in and hit the road!</p>

            <p>Safe travels! 🛣️</p>
            <p><strong>The ELD Trip Planner Team</strong></p>
        </div>
        <div class="footer">
            <p>© 2025 ELD Trip Planner. All rights reserved.</p>
        </div>
    </div>
</body>
</html>`, name)

	textBody := fmt.Sprintf(`
Hello %s!

🎉 Congratulations! Your email has been verified and your account is now active.

What you can do now:

🗺️ Plan Compliant Trips
Enter your current location, pickup and dropoff and get a route with every mandated break, rest and fuel stop placed for you.

📋 Generate ELD Logs
Daily log sheets are drawn up automatically for every day of your trip, with duty-status totals and odometer readings.

⏱️ Track Your Hours
See your remaining cycle, driving and on-duty hours at a glance before you commit to a load.

Ready to plan your first trip? Log in and hit the road!

Safe travels!
The ELD Trip Planner Team

© 2025 ELD Trip Planner. All rights reserved.
    `, name)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	fmt.Printf("📧 Welcome email sent to %s\n", email)
	return nil
}
