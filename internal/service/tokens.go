package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"bakery-shop-backend/internal/model"
)

// ErrUnauthorized is returned by a TokenVerifier for a missing, malformed,
// expired or unknown token.
var ErrUnauthorized = errors.New("not authorized to access this route")

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// JWTVerifier accepts HS256 tokens carrying the account id in the "id"
// claim. The role always comes from the stored account.
type JWTVerifier struct {
	secret []byte
	expire time.Duration
	users  UserRepository
	now    func() time.Time
}

func NewJWTVerifier(secret string, expire time.Duration, users UserRepository) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		expire: expire,
		users:  users,
		now:    time.Now,
	}
}

// IssueToken signs a token for userID. Only the seed tool issues tokens;
// login flows live elsewhere.
func (v *JWTVerifier) IssueToken(userID string) (string, error) {
	now := v.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(v.expire).Unix(),
	})
	signed, err := tok.SignedString(v.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	parsed, err := jwt.Parse(token,
		func(*jwt.Token) (interface{}, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrUnauthorized
	}
	userID, _ := claims["id"].(string)
	if userID == "" {
		return Identity{}, ErrUnauthorized
	}

	u, err := v.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, errors.Wrap(err, "find user")
	}
	return Identity{UserID: u.ID, Role: u.Role}, nil
}
