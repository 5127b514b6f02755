package httputil

import (
	"fmt"
	"net"
)

// blockedRanges lists the address classes a redirect may never target,
// checked in order. Link-local unicast covers the cloud metadata endpoint
// at 169.254.169.254.
var blockedRanges = []struct {
	name    string
	matches func(net.IP) bool
}{
	{"private", net.IP.IsPrivate},
	{"loopback", net.IP.IsLoopback},
	{"link-local", net.IP.IsLinkLocalUnicast},
	{"link-local multicast", net.IP.IsLinkLocalMulticast},
	{"multicast", net.IP.IsMulticast},
	{"unspecified", net.IP.IsUnspecified},
}

// ValidateIP returns an error when ip is private, loopback, link-local,
// multicast or unspecified. The host is included in the message.
func ValidateIP(ip net.IP, host string) error {
	for _, r := range blockedRanges {
		if r.matches(ip) {
			return fmt.Errorf("refusing redirect to %s IP: %s (%s)", r.name, host, ip)
		}
	}
	return nil
}
