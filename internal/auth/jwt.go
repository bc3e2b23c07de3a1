package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim. A session token must never be
// honored where a file capability is expected, and vice versa.
const (
	TokenTypeSession = "session"
	TokenTypeFile    = "file"
)

const (
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
	msgWrongTokenTypeFmt       = "wrong token type: expected %q, got %q"
)

// TokenClaims is the payload of every token this service signs. Session
// tokens set Subject, file capabilities set File; Type gates which
// operations accept the token.
type TokenClaims struct {
	File string `json:"file,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies compact expiring tokens. The algorithm is
// fixed to HS256 on both sides; the verifier never honors the token header's
// alg field beyond checking it is HS256.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// SignSession mints a session token for the given user id.
func (s *TokenService) SignSession(userID string, ttl time.Duration) (string, error) {
	return s.sign(TokenClaims{
		Type: TokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}, ttl)
}

// SignFileCapability mints a capability scoped to exactly one storage key.
func (s *TokenService) SignFileCapability(storageKey string, ttl time.Duration) (string, error) {
	return s.sign(TokenClaims{
		File: storageKey,
		Type: TokenTypeFile,
	}, ttl)
}

func (s *TokenService) sign(claims TokenClaims, ttl time.Duration) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(s.now().Add(ttl))
	claims.IssuedAt = jwt.NewNumericDate(s.now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifySession verifies a session token and returns the user id it names.
func (s *TokenService) VerifySession(tokenString string) (string, error) {
	claims, err := s.verify(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Type != TokenTypeSession {
		return "", fmt.Errorf(msgWrongTokenTypeFmt, TokenTypeSession, claims.Type)
	}
	return claims.Subject, nil
}

// VerifyFileCapability verifies a file capability and returns the storage
// key it grants access to.
func (s *TokenService) VerifyFileCapability(tokenString string) (string, error) {
	claims, err := s.verify(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Type != TokenTypeFile {
		return "", fmt.Errorf(msgWrongTokenTypeFmt, TokenTypeFile, claims.Type)
	}
	return claims.File, nil
}

func (s *TokenService) verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf(msgUnexpectedSigningMethod, token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)

	if err != nil {
		return nil, fmt.Errorf(msgTokenParseFailed, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf(msgInvalidTokenClaims)
	}

	return claims, nil
}
