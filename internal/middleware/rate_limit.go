package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its bucket.
const visitorTTL = 5 * time.Minute

// RateLimit gives every client address its own token bucket refilling at rps
// with the given burst. rps <= 0 disables limiting. Forwarded client headers
// are only honored on requests arriving from a trusted proxy (IP or CIDR).
func RateLimit(rps float64, burst int, trustedProxies []string) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	trusted := parseProxies(trustedProxies)
	visitors := cache.New(visitorTTL, visitorTTL)

	limiter := func(id string) *rate.Limiter {
		if v, ok := visitors.Get(id); ok {
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(rps), burst)
		if err := visitors.Add(id, l, cache.DefaultExpiration); err != nil {
			// lost the race to another request from the same client
			if v, ok := visitors.Get(id); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r, trusted)
			l := limiter(id)
			visitors.SetDefault(id, l)
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type proxies []*net.IPNet

func parseProxies(list []string) proxies {
	var out proxies
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if !strings.Contains(raw, "/") {
			if ip := net.ParseIP(raw); ip != nil {
				bits := 8 * len(ip.To16())
				if ip.To4() != nil {
					ip, bits = ip.To4(), 32
				}
				out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			slog.Warn("rate limit: ignoring bad trusted proxy", "value", raw)
			continue
		}
		out = append(out, n)
	}
	return out
}

func (p proxies) contains(ip net.IP) bool {
	for _, n := range p {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func clientID(r *http.Request, trusted proxies) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil || !trusted.contains(peer) {
		return host
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return host
}
