package audit

import (
	"net"
	"strings"
	"time"
)

// IPRetentionDays is how long full client IPs are retained before
// anonymization.
const IPRetentionDays = 90

// AnonymizeIP anonymizes an IP address for retention compliance.
// For IPv4 the last octet is zeroed (192.168.1.100 becomes 192.168.1.0).
// For IPv6 the last 80 bits are zeroed.
// Returns an empty string for invalid input.
func AnonymizeIP(ipStr string) string {
	if ipStr == "" {
		return ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	if ip.To4() != nil {
		parts := strings.Split(ipStr, ".")
		if len(parts) != 4 {
			return ""
		}
		parts[3] = "0"
		return strings.Join(parts, ".")
	}

	// IPv6: keep the first 48 bits, zero the rest
	ipBytes := []byte(ip.To16())
	if len(ipBytes) != 16 {
		return ""
	}
	for i := 6; i < 16; i++ {
		ipBytes[i] = 0
	}
	return net.IP(ipBytes).String()
}

// IPAnonymizationCutoff returns the date before which IP addresses should be
// anonymized.
func IPAnonymizationCutoff() time.Time {
	return time.Now().UTC().Add(-IPRetentionDays * 24 * time.Hour)
}
