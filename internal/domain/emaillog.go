package domain

import "time"

// EmailLogKindVerificationCode marks log entries for dispatched OTP emails.
const EmailLogKindVerificationCode = "verification_code"

// EmailLog is a write-only audit record of every verification email the
// service dispatched. It never stores the code itself.
type EmailLog struct {
	LogID     string    `json:"id" dynamodbav:"log_id"`
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Kind      string    `json:"kind" dynamodbav:"kind"`
	SentAt    time.Time `json:"sent_at" dynamodbav:"sent_at"`
}
