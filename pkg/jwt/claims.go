package jwt

import "github.com/golang-jwt/jwt/v5"

// Scope values carried in token claims.
const (
	// ScopeUser marks an ordinary interactive session token.
	ScopeUser = "user"
	// ScopeScoring marks a time-boxed scoring credential restricted to one
	// submission's score callback.
	ScopeScoring = "scoring"
)

// Claims is the token payload for both session and scoring tokens.
type Claims struct {
	jwt.RegisteredClaims
	Scope        string `json:"scope"`
	SubmissionID string `json:"submissionId,omitempty"`
}
