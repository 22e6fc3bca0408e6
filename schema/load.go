package schema

import (
	"context"
	"errors"
	"fmt"
)

// Load fetches uri through r and parses it. Fetch failures wrap
// ErrUnavailable; a canceled or expired ctx is also kept in the chain so
// callers can tell timeouts apart.
func Load(ctx context.Context, r Resolver, uri string) (*Schema, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s: no resolver configured", ErrUnavailable, uri)
	}
	data, err := r.Resolve(ctx, uri)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %s: %w", ErrUnavailable, uri, err)
		}
		return nil, err
	}
	return Parse(uri, data)
}
