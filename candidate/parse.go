package candidate

import (
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/relayscan/relayscan/ipgeo"
)

// ParseLine normalizes one feed line into a candidate address, or "" when the
// line is a comment, garbage, or a reserved address. Accepted forms:
//
//	1.2.3.4
//	1.2.3.4:443
//	1.2.3.4:443#comment
//	2606:4700::1
func ParseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	if i := strings.Index(line, "#"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	if host, portStr, err := net.SplitHostPort(line); err == nil {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return ""
		}
		if net.ParseIP(host) == nil || ipgeo.Filtered(host) {
			return ""
		}
		return net.JoinHostPort(host, portStr)
	}

	if net.ParseIP(line) == nil || ipgeo.Filtered(line) {
		return ""
	}
	return line
}

// ExpandCIDR returns up to max host addresses from a CIDR block, in address
// order, skipping the network and broadcast addresses of IPv4 blocks.
// Reserved blocks yield nothing.
func ExpandCIDR(cidr string, max int) []string {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil || max <= 0 {
		return nil
	}
	prefix = prefix.Masked()
	if ipgeo.Filtered(prefix.Addr().String()) {
		return nil
	}

	addr := prefix.Addr()
	skipEdges := addr.Is4() && prefix.Bits() < 31
	if skipEdges {
		addr = addr.Next() // skip network address
	}

	out := make([]string, 0, max)
	for len(out) < max && prefix.Contains(addr) {
		next := addr.Next()
		if skipEdges && !prefix.Contains(next) {
			break // skip broadcast address
		}
		out = append(out, addr.String())
		addr = next
	}
	return out
}

// ParseList parses a whole feed body: one entry per line, each either a
// candidate address or a CIDR block expanded with perCIDR samples.
func ParseList(body string, perCIDR int) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Contains(trimmed, "/") {
			out = append(out, ExpandCIDR(trimmed, perCIDR)...)
			continue
		}
		if addr := ParseLine(trimmed); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
