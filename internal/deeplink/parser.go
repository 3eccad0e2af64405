// Package deeplink turns OS link deliveries into invite and check-in
// actions and runs them off the caller's goroutine.
package deeplink

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/circlapp/circl-link-agent/internal/domain"
)

const (
	hostInvite     = "invite"
	hostEvent      = "event"
	segmentInvite  = "invite"
	segmentCheckIn = "checkin"

	// Custom-scheme invite tokens this short are dropped.
	minSchemeTokenLen = 4
)

type Parser struct {
	scheme        string
	universalHost string
}

// NewParser accepts links on scheme (e.g. "circl") and universal links on
// universalHost (e.g. "circlapp.online", also matched with a "www." prefix).
// An empty universalHost accepts any https host.
func NewParser(scheme, universalHost string) *Parser {
	return &Parser{
		scheme:        strings.ToLower(scheme),
		universalHost: strings.ToLower(universalHost),
	}
}

// Parse classifies raw. Anything that is not a usable invite or check-in
// link returns an error wrapping domain.ErrLinkIgnored.
func (p *Parser) Parse(raw string) (domain.Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.Link{}, fmt.Errorf("%w: %v", domain.ErrLinkIgnored, err)
	}

	switch scheme := strings.ToLower(u.Scheme); {
	case scheme == p.scheme:
		return p.parseCustomScheme(u)
	case scheme == "https":
		return p.parseUniversal(u)
	default:
		return domain.Link{}, fmt.Errorf("%w: scheme %q", domain.ErrLinkIgnored, u.Scheme)
	}
}

// circl://invite/<token> and circl://event/checkin/<code>
func (p *Parser) parseCustomScheme(u *url.URL) (domain.Link, error) {
	parts := pathComponents(u)
	host := strings.ToLower(u.Host)

	switch host {
	case hostInvite:
		token := last(parts)
		if utf8.RuneCountInString(token) < minSchemeTokenLen {
			return domain.Link{}, fmt.Errorf("%w: invite token too short", domain.ErrLinkIgnored)
		}
		return domain.Link{Kind: domain.LinkInvite, Source: domain.SourceCustomScheme, Token: token}, nil
	case hostEvent:
		if len(parts) >= 2 && parts[0] == segmentCheckIn {
			return domain.Link{
				Kind:   domain.LinkCheckIn,
				Source: domain.SourceCustomScheme,
				Token:  strings.Join(parts[1:], "/"),
			}, nil
		}
	}
	return domain.Link{}, fmt.Errorf("%w: host %q", domain.ErrLinkIgnored, u.Host)
}

// https://circlapp.online/invite/<token>/
func (p *Parser) parseUniversal(u *url.URL) (domain.Link, error) {
	if !p.hostAllowed(u.Hostname()) {
		return domain.Link{}, fmt.Errorf("%w: host %q", domain.ErrLinkIgnored, u.Host)
	}

	parts := pathComponents(u)
	idx := -1
	for i, part := range parts {
		if part == segmentInvite {
			idx = i
			break
		}
	}
	// The final component must come after the "invite" segment.
	if idx == -1 || idx == len(parts)-1 {
		return domain.Link{}, fmt.Errorf("%w: no invite token in path", domain.ErrLinkIgnored)
	}
	return domain.Link{Kind: domain.LinkInvite, Source: domain.SourceUniversalLink, Token: last(parts)}, nil
}

// ParseParams handles link-service session params, which name the circle
// directly as a "circle_id" string.
func (p *Parser) ParseParams(params map[string]any) (domain.Link, error) {
	raw, ok := params["circle_id"].(string)
	if !ok {
		return domain.Link{}, fmt.Errorf("%w: no circle_id in params", domain.ErrLinkIgnored)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.Link{}, fmt.Errorf("%w: circle_id %q is not an integer", domain.ErrLinkIgnored, raw)
	}
	return domain.Link{Kind: domain.LinkInvite, Source: domain.SourceParams, CircleID: domain.CircleID(id)}, nil
}

func (p *Parser) hostAllowed(host string) bool {
	if p.universalHost == "" {
		return true
	}
	host = strings.ToLower(host)
	return host == p.universalHost || host == "www."+p.universalHost
}

// pathComponents splits the unescaped path and drops empty segments, so a
// trailing slash never yields an empty last component.
func pathComponents(u *url.URL) []string {
	var parts []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func last(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
