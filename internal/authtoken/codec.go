package authtoken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"labstock-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTTL matches the mobile client's 30-day token lifetime.
	DefaultTTL = 30 * 24 * time.Hour

	revokedPrefix = "revoked_token:"
)

// Codec issues and verifies stateless bearer tokens for mobile callers.
// Token = base64(JSON{userId, iat, exp}) + "." + base64(HMAC-SHA256(payload)).
// With a Redis client configured, Revoke puts a token on a denylist for its
// remaining lifetime; without one the codec is a pure function of its secret.
type Codec struct {
	Secret []byte
	TTL    time.Duration
	Rdb    *redis.Client
}

// payload uses epoch milliseconds on the wire, matching the mobile client.
type payload struct {
	UserID string `json:"userId"`
	Iat    int64  `json:"iat"`
	Exp    int64  `json:"exp"`
}

func (c *Codec) ttl() time.Duration {
	if c.TTL != 0 {
		return c.TTL
	}
	return DefaultTTL
}

// Issue creates a signed token for userID, valid for the codec TTL.
func (c *Codec) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	p := payload{
		UserID: userID.String(),
		Iat:    now.UnixMilli(),
		Exp:    now.Add(c.ttl()).UnixMilli(),
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", apperr.Wrap(err, "Failed to encode token")
	}
	encoded := base64.StdEncoding.EncodeToString(b)
	return encoded + "." + c.sign(encoded), nil
}

// Verify checks the signature and expiry of token and returns the user ID.
// Every failure is Unauthenticated; callers never learn which check tripped.
func (c *Codec) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sig == "" {
		return uuid.Nil, apperr.New(apperr.Unauthenticated, "Invalid token")
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(encoded))) {
		return uuid.Nil, apperr.New(apperr.Unauthenticated, "Invalid token")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Unauthenticated, "Invalid token")
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return uuid.Nil, apperr.New(apperr.Unauthenticated, "Invalid token")
	}
	if time.Now().UnixMilli() > p.Exp {
		return uuid.Nil, apperr.New(apperr.Unauthenticated, "Token expired")
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Unauthenticated, "Invalid token")
	}

	if c.Rdb != nil {
		n, err := c.Rdb.Exists(ctx, revokedPrefix+sig).Result()
		if err != nil {
			// A Redis outage must not lock every mobile caller out; the
			// token is still cryptographically valid.
			log.Error().Err(err).Msg("token denylist check failed")
		} else if n > 0 {
			return uuid.Nil, apperr.New(apperr.Unauthenticated, "Token revoked")
		}
	}

	return userID, nil
}

// Revoke denylists a token until it would have expired anyway. Tokens that
// fail verification are ignored.
func (c *Codec) Revoke(ctx context.Context, token string) error {
	if c.Rdb == nil {
		return nil
	}
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return nil
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(encoded))) {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	remaining := time.Until(time.UnixMilli(p.Exp))
	if remaining <= 0 {
		return nil
	}
	if err := c.Rdb.Set(ctx, revokedPrefix+sig, "1", remaining).Err(); err != nil {
		return apperr.Wrap(err, "Failed to revoke token")
	}
	return nil
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.Secret)
	mac.Write([]byte(encoded))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
