package http

import (
	"github.com/nearnest/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/nearnest/api/internal/infrastructure/jwt"
	"github.com/nearnest/api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
// Mailer and JWTProvider may be nil when their configuration is absent; the
// affected endpoints then fail with the corresponding operational error.
type Deps struct {
	AccountRepo      *dynamo.AccountRepo
	VerificationRepo *dynamo.VerificationRepo
	EmailLogRepo     *dynamo.EmailLogRepo
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
}
