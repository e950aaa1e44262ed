// Package privacy masks client addresses before they reach logs.
package privacy

import "net/netip"

// AnonymizeIP masks an address to its network: /24 for IPv4 (and IPv4-mapped
// IPv6), /48 for IPv6. Rate limit keys keep the full address; only log lines
// and event log metadata go through this.
//
// Returns "unknown" for empty input and "invalid" for unparseable input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
