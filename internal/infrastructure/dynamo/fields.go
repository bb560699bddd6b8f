package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAccountID = "account_id"
	fieldEmail     = "email"
	fieldStatus    = "status"
	fieldRoles     = "roles"
	fieldAttempts  = "attempts"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldExpiresAt = "expires_at"
)
