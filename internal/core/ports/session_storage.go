package ports

import "context"

// SessionStorage is the durable key-value store that keeps a device signed in
// across restarts. Get reports found=false for a missing key.
type SessionStorage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// SetMany writes all pairs together so a reader never sees half of them.
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
