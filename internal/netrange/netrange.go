package netrange

import (
	"errors"
	"fmt"
	"net"
	"sort"
)

// ErrNoLocalAddress is returned when the local interface address cannot
// be determined.
var ErrNoLocalAddress = errors.New("netrange: failed to determine local address")

// LocalIP returns the IPv4 address of the interface that would carry
// outbound traffic.
//
// Design decision: We open a UDP "connection" to a public address and
// read the chosen source address instead of walking the interface list.
// No packet is sent (UDP connect only binds), and the kernel's routing
// decision picks the right interface on multi-homed machines.
func LocalIP() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoLocalAddress, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return nil, ErrNoLocalAddress
	}
	return addr.IP.To4(), nil
}

// LocalSubnetHosts enumerates every host address in the local /24.
func LocalSubnetHosts() ([]string, error) {
	ip, err := LocalIP()
	if err != nil {
		return nil, err
	}
	return SubnetHosts(ip), nil
}

// SubnetHosts expands the /24 containing ip into its 254 host
// addresses (network and broadcast addresses skipped).
func SubnetHosts(ip net.IP) []string {
	v4 := ip.To4()
	if v4 == nil {
		return nil
	}

	hosts := make([]string, 0, 254)
	for last := 1; last <= 254; last++ {
		hosts = append(hosts, fmt.Sprintf("%d.%d.%d.%d", v4[0], v4[1], v4[2], last))
	}
	return hosts
}

// ExpandCIDR enumerates the host addresses of an IPv4 CIDR range.
// Network and broadcast addresses are skipped for prefixes shorter
// than /31.
func ExpandCIDR(cidr string) ([]string, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if ip.To4() == nil {
		return nil, fmt.Errorf("invalid CIDR %q: only IPv4 ranges are supported", cidr)
	}

	ones, bits := ipNet.Mask.Size()
	var hosts []string
	for addr := ip.Mask(ipNet.Mask); ipNet.Contains(addr); addr = nextIP(addr) {
		hosts = append(hosts, addr.String())
	}

	// Drop network and broadcast addresses on conventional subnets.
	if ones < bits-1 && len(hosts) > 2 {
		hosts = hosts[1 : len(hosts)-1]
	}
	return hosts, nil
}

// nextIP returns the address one greater than ip.
func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}

// Merge combines host lists into one sorted, deduplicated list.
func Merge(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, host := range list {
			if host != "" && !seen[host] {
				seen[host] = true
				merged = append(merged, host)
			}
		}
	}
	sort.Strings(merged)
	return merged
}
