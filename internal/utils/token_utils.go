package utils

import (
	"errors"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidPrincipalClaims = errors.New("token does not carry a valid principal")

// PrincipalClaims are the JWT claims issued for a school staff member.
// The subject is the principal id.
type PrincipalClaims struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the principal described by the claims.
func (c *PrincipalClaims) Principal() domain.Principal {
	return domain.Principal{ID: c.Subject, Name: c.Name, Role: c.Role}
}

// GenerateJWT generates a new HS256 token for the principal.
func GenerateJWT(p domain.Principal, secret string, expiryDuration time.Duration, issuer string) (string, error) {
	now := time.Now()
	claims := PrincipalClaims{
		Name: p.Name,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidateJWT parses a JWT token string, validates its signature and standard claims,
// and checks that it names a known role and a subject. A non-empty issuer must match the iss claim.
func ParseAndValidateJWT(tokenString string, secretKey string, issuer string) (*PrincipalClaims, error) {
	claims := &PrincipalClaims{}

	var opts []jwt.ParserOption
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secretKey), nil
	}, opts...)
	if err != nil {
		return nil, err // This will include errors like token expired, signature invalid, etc.
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" || !claims.Role.IsValid() {
		return nil, ErrInvalidPrincipalClaims
	}

	return claims, nil
}
