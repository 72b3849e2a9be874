package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies are the networks allowed to report the client address in
// X-Real-IP or X-Forwarded-For. Requests from anywhere else are keyed on
// their RemoteAddr.
type TrustedProxies []netip.Prefix

func (tp TrustedProxies) trusts(addr netip.Addr) bool {
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address the request is accounted to.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	remote := remoteHost(r.RemoteAddr)
	peer, err := netip.ParseAddr(remote)
	if err != nil || !tp.trusts(peer.Unmap()) {
		return remote
	}

	if ip, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return ip.String()
	}

	// Proxies append, so the rightmost untrusted hop is the first one a
	// client could not have forged.
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	var leftmost string
	for i := len(hops) - 1; i >= 0; i-- {
		ip, ok := parseAddr(hops[i])
		if !ok {
			break
		}
		if !tp.trusts(ip) {
			return ip.String()
		}
		leftmost = ip.String()
	}
	if leftmost != "" {
		return leftmost
	}
	return remote
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func parseAddr(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}
