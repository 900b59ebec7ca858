package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 12

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Token purposes; a token is only accepted for the purpose it was issued for.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password-reset"
)

// Claims defines the JWT claims.
type Claims struct {
	UID     string `json:"uid"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	// Fingerprint ties a password-reset token to the credential it replaces.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token for uid valid for ttl.
func GenerateJWT(uid, role, purpose string, ttl time.Duration, secret string) (string, time.Time, error) {
	return sign(&Claims{UID: uid, Role: role, Purpose: purpose}, ttl, secret)
}

// GenerateResetJWT signs a password-reset token bound to the current
// credential fingerprint. Once the password changes the token stops matching.
func GenerateResetJWT(uid, fingerprint string, ttl time.Duration, secret string) (string, time.Time, error) {
	return sign(&Claims{UID: uid, Purpose: PurposePasswordReset, Fingerprint: fingerprint}, ttl, secret)
}

func sign(claims *Claims, ttl time.Duration, secret string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	return signed, expiresAt, err
}

// CredentialFingerprint derives a short digest of a stored password hash.
func CredentialFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:16])
}

// SameFingerprint compares fingerprints in constant time.
func SameFingerprint(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidateJWT validates a JWT token issued for purpose.
func ValidateJWT(tokenStr, purpose, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UID == "" || claims.Purpose != purpose {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UsernameFromEmail returns the local part of an email address.
func UsernameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
