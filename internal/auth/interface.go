package auth

import "dptracker/internal/domain/models"

// JWTVerifier verifies bearer tokens presented to the tracker API.
type JWTVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Invalid, expired or anonymous tokens yield domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
