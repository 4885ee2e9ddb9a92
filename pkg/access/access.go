/*
Copyright 2024 The Zimg Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package access implements the per-IP gate in front of the upload and
// download paths. A rule list is an ordered sequence of allow/deny
// entries; the first entry matching the client address decides.
package access // import "zimg.org/pkg/access"

import (
	"net"
	"strings"

	"github.com/pkg/errors"
)

// Decision is the outcome of a gate check.
type Decision int

const (
	Allow Decision = iota
	Forbidden
	// Error means the check itself failed (unparsable address). The
	// dispatcher turns it into a server error, not a denial.
	Error
)

type rule struct {
	allow bool
	all   bool
	ip    net.IP     // single-host rule
	net   *net.IPNet // CIDR rule
}

// List is an ordered access rule list. A nil *List allows everything.
type List struct {
	rules []rule
}

// Parse builds a rule list from its config form:
// ";"-separated entries of "allow <ip|cidr|all>" or "deny <ip|cidr|all>".
// An empty string yields a nil list (gate disabled).
func Parse(s string) (*List, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var l List
	for _, ent := range strings.Split(s, ";") {
		ent = strings.TrimSpace(ent)
		if ent == "" {
			continue
		}
		fields := strings.Fields(ent)
		if len(fields) != 2 {
			return nil, errors.Errorf("access: malformed rule %q", ent)
		}
		var r rule
		switch fields[0] {
		case "allow":
			r.allow = true
		case "deny":
		default:
			return nil, errors.Errorf("access: unknown verb in rule %q", ent)
		}
		switch arg := fields[1]; {
		case arg == "all":
			r.all = true
		case strings.ContainsRune(arg, '/'):
			_, ipnet, err := net.ParseCIDR(arg)
			if err != nil {
				return nil, errors.Wrapf(err, "access: bad CIDR in rule %q", ent)
			}
			r.net = ipnet
		default:
			ip := net.ParseIP(arg)
			if ip == nil {
				return nil, errors.Errorf("access: bad address in rule %q", ent)
			}
			r.ip = ip
		}
		l.rules = append(l.rules, r)
	}
	if len(l.rules) == 0 {
		return nil, nil
	}
	return &l, nil
}

// Check evaluates addr (an IPv4/IPv6 address without port) against the
// list. With a configured list, an address matching no rule is refused.
func (l *List) Check(addr string) Decision {
	if l == nil {
		return Allow
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return Error
	}
	for _, r := range l.rules {
		if r.matches(ip) {
			if r.allow {
				return Allow
			}
			return Forbidden
		}
	}
	return Forbidden
}

func (r rule) matches(ip net.IP) bool {
	switch {
	case r.all:
		return true
	case r.net != nil:
		return r.net.Contains(ip)
	default:
		return r.ip.Equal(ip)
	}
}
