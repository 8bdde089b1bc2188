package cache

import (
	"time"
)

// Tiered reads through the in-process layer first and falls back to redis,
// refilling L1 on a hit. Writes and deletes go to both layers. A nil remote
// degrades to L1-only, which keeps the API usable in tests and when redis
// is unreachable at startup.
type Tiered struct {
	local  *Memory
	remote *Cache
}

func NewTiered(local *Memory, remote *Cache) *Tiered {
	return &Tiered{
		local:  local,
		remote: remote,
	}
}

func (t *Tiered) Get(key string) (string, bool) {
	if value, found := t.local.Get(key); found {
		return value, true
	}

	if t.remote == nil {
		return "", false
	}

	value, err := t.remote.Get(key)
	if err != nil {
		return "", false
	}

	// refill L1 with a short TTL; redis keeps the authoritative expiry
	t.local.Set(key, value, 30*time.Second)

	return value, true
}

func (t *Tiered) Set(key string, value string, expiration time.Duration) error {
	t.local.Set(key, value, expiration)

	if t.remote == nil {
		return nil
	}

	return t.remote.Set(key, value, expiration)
}

func (t *Tiered) Delete(key string) error {
	t.local.Delete(key)

	if t.remote == nil {
		return nil
	}

	return t.remote.Delete(key)
}
