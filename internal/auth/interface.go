package auth

import "stratus/internal/domain/models"

// TokenVerifier validates bearer tokens issued by the host application's
// auth service. The middleware stays agnostic to how verification happens.
type TokenVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
