package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// OutboundURLOptions configures validation of the reply service address.
type OutboundURLOptions struct {
	// AllowRemoteHTTP permits plain HTTP to hosts outside loopback and private
	// networks. HTTPS is always allowed, and so is HTTP to local targets.
	AllowRemoteHTTP bool
}

// ValidateOutboundURL checks that rawURL is an absolute http(s) URL and that
// messages sent to it do not cross the internet unencrypted.
//
// Host names other than localhost are not resolved, so an http URL naming a
// remote host by name is rejected unless AllowRemoteHTTP is set.
func ValidateOutboundURL(rawURL string, opts OutboundURLOptions) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid URL %q", rawURL)
	}

	switch parsed.Scheme {
	case "https", "http":
	default:
		return nil, errors.Errorf("unsupported URL scheme %q in %q", parsed.Scheme, rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return nil, errors.Errorf("URL %q has no host", rawURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if addr.IsUnspecified() || addr.IsMulticast() {
			return nil, errors.Errorf("disallowed IP address %q", host)
		}
	}

	if parsed.Scheme == "http" && !opts.AllowRemoteHTTP && !IsLocalHost(host) {
		return nil, errors.Errorf("plain http to remote host %q is not allowed, use https", host)
	}

	return parsed, nil
}

// IsLocalHost reports whether host is a loopback, private or link-local
// target. Only IP literals and localhost names are recognized.
func IsLocalHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
