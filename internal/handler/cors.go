package handler

import (
	"net/url"
	"strings"

	"contact-relay/internal/config"
)

var localHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

// OriginPolicy decides which origins get their Origin reflected back.
// It is immutable after construction.
type OriginPolicy struct {
	allowed     map[string]struct{}
	development bool
}

func NewOriginPolicy(allowed []string, environment string) *OriginPolicy {
	p := &OriginPolicy{
		allowed:     make(map[string]struct{}, len(allowed)),
		development: environment == config.EnvDevelopment,
	}
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

// IsAllowedOrigin reports whether origin may read responses. Listed
// origins match exactly; local hosts are always allowed; development
// allows any non-empty origin.
func (p *OriginPolicy) IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := p.allowed[origin]; ok {
		return true
	}
	if p.development {
		return true
	}
	return isLocalOrigin(origin)
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	_, ok := localHosts[strings.ToLower(u.Hostname())]
	return ok
}
