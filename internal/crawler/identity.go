package crawler

import (
	"math/rand/v2"
)

// IdentityRotator hands out client identity strings (user agents) from a
// pool. A fresh identity is drawn for every fetch attempt.
type IdentityRotator struct {
	agents []string
}

// NewIdentityRotator creates a rotator over the given pool. An empty pool
// yields empty identities; adapters fall back to their own default then.
func NewIdentityRotator(agents []string) *IdentityRotator {
	return &IdentityRotator{agents: agents}
}

// Next returns a randomly chosen identity from the pool.
func (r *IdentityRotator) Next() string {
	if len(r.agents) == 0 {
		return ""
	}
	return r.agents[rand.IntN(len(r.agents))]
}
