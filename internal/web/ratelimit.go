package web

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter applies a token bucket per client IP and evicts idle entries so
// the map does not grow without bound.
type ipLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byIP    map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &ipLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byIP:    make(map[string]*limiterEntry),
		idleTTL: 10 * time.Minute,
	}
}

// allow reports whether one token can be consumed for the request's peer.
// A nil limiter allows everything.
func (l *ipLimiter) allow(r *http.Request) bool {
	if l == nil {
		return true
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return true
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byIP[host]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byIP[host] = e
	}
	e.lastSeen = now

	l.hits++
	if l.hits%512 == 0 {
		for ip, entry := range l.byIP {
			if now.Sub(entry.lastSeen) > l.idleTTL {
				delete(l.byIP, ip)
			}
		}
	}

	return e.limiter.Allow()
}
