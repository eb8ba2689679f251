package whoisx

import (
	"fmt"
	"strings"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// Summary is the compact registration snapshot attached to a report. Only
// the root domain gets one; failures upstream simply leave it nil.
type Summary struct {
	Registrar   string   `json:"registrar,omitempty"`
	Created     string   `json:"created,omitempty"`
	Updated     string   `json:"updated,omitempty"`
	Expires     string   `json:"expires,omitempty"`
	NameServers []string `json:"name_servers,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	DNSSEC      string   `json:"dnssec,omitempty"`
}

// Lookup queries WHOIS for the domain and parses the response into a
// Summary. Both the network lookup and the parse are best-effort from the
// caller's point of view.
func Lookup(domain string) (*Summary, error) {
	raw, err := whois.Whois(domain)
	if err != nil {
		return nil, fmt.Errorf("whois lookup failed: %w", err)
	}
	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("whois parse failed: %w", err)
	}
	return summarize(parsed), nil
}

func summarize(info whoisparser.WhoisInfo) *Summary {
	s := &Summary{}
	if info.Registrar != nil {
		s.Registrar = info.Registrar.Name
	}
	if d := info.Domain; d != nil {
		s.Created = d.CreatedDate
		s.Updated = d.UpdatedDate
		s.Expires = d.ExpirationDate
		for _, ns := range d.NameServers {
			ns = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(ns), "."))
			if ns != "" {
				s.NameServers = append(s.NameServers, ns)
			}
		}
		s.Statuses = append(s.Statuses, d.Status...)
		if d.DNSSec {
			s.DNSSEC = "signedDelegation"
		} else {
			s.DNSSEC = "unsigned"
		}
	}
	return s
}
