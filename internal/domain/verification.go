package domain

// EmailVerification is the per-account OTP challenge record.
// PK: account_id. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
// Only the digest of the code is stored; the raw code leaves the system
// exclusively through the email channel.
//
// Lifecycle: written on issuance (full replacement of any prior challenge),
// consulted and mutated on validation, deleted on success, exhaustion or
// expiry. It never outlives the challenge it represents.
type EmailVerification struct {
	AccountID string `json:"account_id" dynamodbav:"account_id"`
	CodeHash  string `json:"-" dynamodbav:"code_hash"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
}
