package authservice

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/twinj/uuid"
)

type AccessToken struct {
	UUID      string
	Hash      string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UUID   string
	UserID uint64
	Email  string
}

type Tokenizer interface {
	Generate(userID uint64, email string) (*AccessToken, error)
	Parse(hash string) (*AccessClaims, error)
}

type tokenizer struct {
	secret []byte
	expiry time.Duration
}

// NewTokenizer signs HS256 access tokens with secret that stay valid for
// expiry.
func NewTokenizer(secret []byte, expiry time.Duration) Tokenizer {
	return &tokenizer{secret: secret, expiry: expiry}
}

var uuidV4 = uuid.NewV4

type accessClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.StandardClaims
}

func (t *tokenizer) Generate(userID uint64, email string) (*AccessToken, error) {
	now := time.Now()
	id := uuidV4().String()
	expiry := now.Add(t.expiry)

	claims := accessClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Id:        id,
			Subject:   email,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiry.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hash, err := token.SignedString(t.secret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{UUID: id, Hash: hash, ExpiresAt: expiry}, nil
}

// Parse verifies the signature and expiry of hash. Only HMAC signed tokens
// are accepted.
func (t *tokenizer) Parse(hash string) (*AccessClaims, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(hash, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", authsvc.ErrTokenInvalid, token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, authsvc.ErrTokenInvalid
	}
	if claims.UserID == 0 || claims.Subject == "" {
		return nil, authsvc.ErrClaimsInvalid
	}

	return &AccessClaims{UUID: claims.Id, UserID: claims.UserID, Email: claims.Subject}, nil
}

func AccessTokenExpiry() time.Duration {
	return time.Minute * 30
}
