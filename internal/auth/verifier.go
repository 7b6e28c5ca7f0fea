// Package auth implements JWT token verification with RS256/PEM support.
//
// Every request except /health carries an Authorization: Bearer <token>
// header. Scopes gate the surface: read covers state and history queries,
// execute covers command and action execution, admin covers lifecycle and
// fallback-mode control.
package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// VerifierConfig holds configuration for JWT verification.
type VerifierConfig struct {
	// RS256 configuration
	PublicKeyPEM string

	// HS256 configuration
	SecretKey string

	// Algorithm preference
	Algorithm string // "RS256" or "HS256"
}

// Verifier handles JWT token verification with support for RS256 and HS256.
type Verifier struct {
	config    VerifierConfig
	publicKey *rsa.PublicKey
}

// NewVerifier creates a new JWT verifier.
func NewVerifier(config VerifierConfig) (*Verifier, error) {
	v := &Verifier{
		config: config,
	}

	switch config.Algorithm {
	case "RS256":
		if config.PublicKeyPEM == "" {
			return nil, fmt.Errorf("RS256 requires a public key")
		}
		if err := v.loadPublicKeyFromPEM(config.PublicKeyPEM); err != nil {
			return nil, fmt.Errorf("failed to load public key from PEM: %w", err)
		}
	case "HS256":
		if config.SecretKey == "" {
			return nil, fmt.Errorf("HS256 requires secret key")
		}
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", config.Algorithm)
	}

	return v, nil
}

// VerifyToken verifies a JWT token and returns the claims.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	switch v.config.Algorithm {
	case "RS256":
		return v.verifyRS256Token(tokenString)
	case "HS256":
		return v.verifyHS256Token(tokenString)
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", v.config.Algorithm)
	}
}

// verifyRS256Token verifies a JWT token signed with RS256.
func (v *Verifier) verifyRS256Token(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate algorithm
		if token.Method.Alg() != "RS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		if v.publicKey == nil {
			return nil, fmt.Errorf("no public key available")
		}
		return v.publicKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return v.extractClaimsFromMap(claims)
}

// verifyHS256Token verifies a JWT token signed with HS256.
func (v *Verifier) verifyHS256Token(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate algorithm
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(v.config.SecretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return v.extractClaimsFromMap(claims)
}

// extractClaimsFromMap extracts claims from JWT MapClaims.
func (v *Verifier) extractClaimsFromMap(claims *jwt.MapClaims) (*Claims, error) {
	// Extract subject
	sub, ok := (*claims)["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'sub' claim")
	}

	// Extract roles
	roles, err := v.extractStringSlice(claims, "roles")
	if err != nil {
		return nil, fmt.Errorf("missing or invalid 'roles' claim: %w", err)
	}

	// Extract scopes
	scopes, err := v.extractStringSlice(claims, "scopes")
	if err != nil {
		return nil, fmt.Errorf("missing or invalid 'scopes' claim: %w", err)
	}

	if !v.validateRoles(roles) {
		return nil, fmt.Errorf("invalid roles: %v", roles)
	}

	if !v.validateScopes(scopes) {
		return nil, fmt.Errorf("invalid scopes: %v", scopes)
	}

	return &Claims{
		Subject: sub,
		Roles:   roles,
		Scopes:  scopes,
	}, nil
}

// extractStringSlice extracts a string slice from claims.
func (v *Verifier) extractStringSlice(claims *jwt.MapClaims, key string) ([]string, error) {
	value, ok := (*claims)[key]
	if !ok {
		return nil, fmt.Errorf("missing claim: %s", key)
	}

	switch val := value.(type) {
	case []string:
		return val, nil
	case []interface{}:
		result := make([]string, len(val))
		for i, item := range val {
			if str, ok := item.(string); ok {
				result[i] = str
			} else {
				return nil, fmt.Errorf("invalid %s claim: not a string", key)
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("invalid %s claim: not a string array", key)
	}
}

// validateRoles validates that all roles are valid.
func (v *Verifier) validateRoles(roles []string) bool {
	validRoles := map[string]bool{
		RoleOperator: true,
		RoleAdmin:    true,
	}

	for _, role := range roles {
		if !validRoles[role] {
			return false
		}
	}

	return len(roles) > 0
}

// validateScopes validates that all scopes are valid.
func (v *Verifier) validateScopes(scopes []string) bool {
	validScopes := map[string]bool{
		ScopeRead:    true,
		ScopeExecute: true,
		ScopeAdmin:   true,
	}

	for _, scope := range scopes {
		if !validScopes[scope] {
			return false
		}
	}

	return len(scopes) > 0
}

// loadPublicKeyFromPEM loads a public key from PEM format.
func (v *Verifier) loadPublicKeyFromPEM(pemData string) error {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return fmt.Errorf("failed to decode PEM block")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("not an RSA public key")
	}

	v.publicKey = rsaPub
	return nil
}
