package ipgeo

import (
	"net"
)

var reservedRanges = func() []*net.IPNet {
	cidrs := []string{
		"0.0.0.0/8",       // RFC1122
		"10.0.0.0/8",      // RFC1918
		"100.64.0.0/10",   // RFC6598
		"127.0.0.0/8",     // RFC1122
		"169.254.0.0/16",  // RFC3927
		"172.16.0.0/12",   // RFC1918
		"192.0.0.0/24",    // RFC6890
		"192.0.2.0/24",    // RFC5737
		"192.88.99.0/24",  // RFC3068
		"192.168.0.0/16",  // RFC1918
		"198.18.0.0/15",   // RFC2544
		"198.51.100.0/24", // RFC5737
		"203.0.113.0/24",  // RFC5737
		"224.0.0.0/4",     // RFC5771
		"240.0.0.0/4",     // RFC1112
		"fc00::/7",        // RFC4193
		"fe80::/10",       // RFC4291
		"::1/128",         // loopback
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, ipNet, err := net.ParseCIDR(c)
		if err != nil {
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}()

// Filtered reports whether ip is private, loopback or otherwise reserved and
// therefore pointless to probe or geolocate. Unparsable input is filtered too.
func Filtered(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	for _, ipNet := range reservedRanges {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}
