package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// JWTCallback returns a Callback accepting HS256 tokens signed with secret.
// Issuer and audience are checked when non-empty. Invalid or expired tokens
// are denials, not errors.
func JWTCallback(secret []byte, issuer, audience string) (Callback, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(opts...)

	return func(ctx context.Context, token string) (bool, error) {
		if token == "" {
			return false, nil
		}

		parsed, err := parser.Parse(token, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				slog.DebugContext(ctx, "Rejected expired JWT")
			}
			return false, nil
		}
		return parsed.Valid, nil
	}, nil
}
