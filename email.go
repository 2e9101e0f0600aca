package gatekey

import (
	"context"
	"log"
)

// OTPSender delivers a one-time code to an email address. Implementations
// must not panic or let transport errors escape; a failed delivery is
// reported as (false, detail) so the caller can roll back the issued code.
type OTPSender interface {
	Send(ctx context.Context, email string, code string) (delivered bool, errDetail string)
}

// ConsoleOTPSender is a development implementation that logs codes to the
// console instead of sending mail.
type ConsoleOTPSender struct{}

func (c *ConsoleOTPSender) Send(ctx context.Context, email string, code string) (bool, string) {
	log.Printf("\n=== EMAIL: Verification code ===")
	log.Printf("To: %s", email)
	log.Printf("Subject: Your verification code")
	log.Printf("Body: Use this one-time code to verify your account: %s", code)
	log.Printf("================================\n")
	return true, ""
}
