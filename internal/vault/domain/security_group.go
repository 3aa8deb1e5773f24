package domain

import (
	"net/netip"
)

// SecurityGroup is a CIDR range authorized to authenticate as a principal.
type SecurityGroup struct {
	prefix netip.Prefix
}

// ParseSecurityGroup parses a CIDR range such as "10.0.0.0/8" or
// "127.0.0.1/32". Single addresses without a prefix length are rejected.
func ParseSecurityGroup(cidr string) (SecurityGroup, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return SecurityGroup{}, ErrInvalidSecurityGroup
	}
	return SecurityGroup{prefix: prefix.Masked()}, nil
}

// Contains reports whether the address falls inside the range. Mapped IPv4
// addresses are unmapped first so "::ffff:127.0.0.1" matches "127.0.0.1/32".
func (g SecurityGroup) Contains(addr netip.Addr) bool {
	return g.prefix.Contains(addr.Unmap())
}

// String returns the canonical CIDR text.
func (g SecurityGroup) String() string {
	return g.prefix.String()
}

// SecurityGroups is the CIDR allow-list attached to a user or access key.
type SecurityGroups []SecurityGroup

// ParseSecurityGroups parses a list of CIDR ranges, rejecting empty lists so
// a principal can never be created without an allow-list.
func ParseSecurityGroups(cidrs []string) (SecurityGroups, error) {
	if len(cidrs) == 0 {
		return nil, ErrInvalidSecurityGroup
	}

	out := make(SecurityGroups, 0, len(cidrs))
	for _, cidr := range cidrs {
		group, err := ParseSecurityGroup(cidr)
		if err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, nil
}

// Contains reports whether any range in the list contains the address.
func (g SecurityGroups) Contains(addr netip.Addr) bool {
	for _, group := range g {
		if group.Contains(addr) {
			return true
		}
	}
	return false
}

// Strings returns the canonical CIDR texts, used for persistence and display.
func (g SecurityGroups) Strings() []string {
	out := make([]string, 0, len(g))
	for _, group := range g {
		out = append(out, group.String())
	}
	return out
}

// LoopbackSecurityGroups is the allow-list applied to the bootstrap root
// user: only local connections may authenticate until an operator widens it.
func LoopbackSecurityGroups() SecurityGroups {
	return SecurityGroups{
		{prefix: netip.MustParsePrefix("127.0.0.1/32")},
		{prefix: netip.MustParsePrefix("::1/128")},
	}
}
