package ipgeo

import (
	"strings"
)

// Unknown is returned when no provider could attribute a country to an IP.
const Unknown = "UNKNOWN"

// Source resolves an IP address to an ISO 3166-1 alpha-2 country code.
type Source = func(ip string) (string, error)

func GetSource(s string) Source {
	switch strings.ToUpper(s) {
	case "IP-API.COM", "IPAPI.COM":
		return IPApiCom
	case "IP.SB":
		return IPSB
	case "IPINFO":
		return IPInfo
	case "MMDB":
		return MMDBLocal
	default:
		return IPApiCom
	}
}
