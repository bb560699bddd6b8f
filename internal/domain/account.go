package domain

import "time"

// Account statuses. An account starts pending and transitions to verified
// exactly once, when a correct unexpired code is submitted.
const (
	StatusPendingEmailVerification = "pending_email_verification"
	StatusEmailVerified            = "email_verified"
)

// Account is the marketplace account record, keyed by the identifier the
// identity provider assigns. The verification flow merge-upserts it and
// flips Status; Roles are owned by other flows and never mutated here.
type Account struct {
	AccountID string    `json:"id" dynamodbav:"account_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Roles     []string  `json:"roles" dynamodbav:"roles"`
	Status    string    `json:"status" dynamodbav:"status"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
