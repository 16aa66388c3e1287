package collector

import (
	"math/rand/v2"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.10 Safari/605.1.1",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.3",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

// UserAgents hands out user agent strings in random order.
type UserAgents struct {
	mu     sync.Mutex
	agents []string
	pick   func(n int) int
}

// NewUserAgents returns a pool over agents, or over a built-in desktop
// browser list when agents is empty.
func NewUserAgents(agents []string) *UserAgents {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &UserAgents{
		agents: append([]string(nil), agents...),
		pick:   rand.IntN,
	}
}

// Next returns one user agent.
func (u *UserAgents) Next() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.agents[u.pick(len(u.agents))]
}
