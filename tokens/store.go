package tokens

import (
	"context"

	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
)

// Fixed storage keys. A browser has exactly these two slots.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Store persists the token slots of each browser. Missing values read as "" with no error and
// the last write to a slot wins.
type Store interface {
	Get(ctx context.Context, browserID, key string) (string, error)
	Set(ctx context.Context, browserID, key, value string) error
	Remove(ctx context.Context, browserID, key string) error
}

func checkKey(browserID, key string) error {
	if browserID == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidKey, "browserID is required")
	}
	if key != AccessTokenKey && key != RefreshTokenKey {
		return apperrors.Wrapf(apperrors.ErrInvalidKey, "unknown key %q", key)
	}
	return nil
}
