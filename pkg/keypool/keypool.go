package keypool

import (
	"errors"
	"sync"
)

// ErrEmptyPool is returned when a pool is constructed without credentials.
var ErrEmptyPool = errors.New("keypool: no credentials provided")

// Pool is a rotating set of provider credentials. There is no package-level
// state: the pool is constructed once and injected into whatever client
// consumes the rate-limited provider.
type Pool struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// New creates a pool over the given credentials.
func New(keys []string) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPool
	}
	copied := make([]string, len(keys))
	copy(copied, keys)
	return &Pool{keys: copied}, nil
}

// Current returns the credential the index points at without advancing.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys[p.idx]
}

// Next returns the current credential and advances the circular index.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := p.keys[p.idx]
	p.idx = (p.idx + 1) % len(p.keys)
	return key
}

// Rotate advances the circular index without returning a credential.
func (p *Pool) Rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idx = (p.idx + 1) % len(p.keys)
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
