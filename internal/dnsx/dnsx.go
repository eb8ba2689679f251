package dnsx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"

	"github.com/v4lpr/subrecon/internal/report"
)

const (
	// DefaultTimeout bounds each record-type query during the sweep.
	DefaultTimeout = 2500 * time.Millisecond
	// rootTimeout is the larger budget for the one-shot root queries.
	rootTimeout = 5 * time.Second

	fallbackServer = "8.8.8.8:53"
)

// Exchanger issues one DNS round trip. *dns.Client satisfies it; tests
// substitute a canned exchanger.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, addr string) (*dns.Msg, time.Duration, error)
}

// Resolver runs typed record queries against a single server with a bounded
// per-query timeout. Every failure mode — timeout, NXDOMAIN, SERVFAIL,
// malformed answer — collapses to an empty value list for that one record
// type and never disturbs sibling queries.
type Resolver struct {
	Server  string
	Timeout time.Duration
	Client  Exchanger

	// Limiter, when set, throttles the global query rate.
	Limiter *rate.Limiter
}

// New returns a resolver for the given "host:port" server.
func New(server string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		Server:  server,
		Timeout: timeout,
		Client:  &dns.Client{Timeout: timeout},
	}
}

// SystemServer picks the first nameserver from /etc/resolv.conf, falling
// back to a public resolver when the file is unusable.
func SystemServer() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackServer
	}
	return cfg.Servers[0] + ":" + cfg.Port
}

var (
	subTypes  = []uint16{dns.TypeA, dns.TypeAAAA, dns.TypeCNAME, dns.TypeTXT}
	rootTypes = []uint16{dns.TypeNS, dns.TypeMX, dns.TypeSOA, dns.TypeTXT, dns.TypeA, dns.TypeAAAA}
)

// Resolve queries the subdomain record-type set for one host. The returned
// set always carries exactly the A/AAAA/CNAME/TXT keys.
func (r *Resolver) Resolve(ctx context.Context, host string) report.RecordSet {
	return r.resolveTypes(ctx, host, subTypes, r.Timeout)
}

// ResolveRoot queries the zone-level record-type set for the target domain
// itself, with a longer per-query budget since it runs once.
func (r *Resolver) ResolveRoot(ctx context.Context, domain string) report.RecordSet {
	budget := rootTimeout
	if r.Timeout > budget {
		budget = r.Timeout
	}
	return r.resolveTypes(ctx, domain, rootTypes, budget)
}

func (r *Resolver) resolveTypes(ctx context.Context, name string, types []uint16, budget time.Duration) report.RecordSet {
	rs := make(report.RecordSet, len(types))
	for _, qtype := range types {
		rs[dns.TypeToString[qtype]] = r.query(ctx, name, qtype, budget)
	}
	return rs
}

// query issues one typed query and renders the matching answers. It never
// returns nil so the record set marshals as [] rather than null.
func (r *Resolver) query(ctx context.Context, name string, qtype uint16, budget time.Duration) []string {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return []string{}
		}
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	qctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	in, _, err := r.Client.ExchangeContext(qctx, m, r.Server)
	if err != nil || in == nil || in.Rcode != dns.RcodeSuccess {
		return []string{}
	}

	out := []string{}
	for _, rr := range in.Answer {
		if s, ok := renderRR(rr, qtype); ok {
			out = append(out, s)
		}
	}
	return out
}

// renderRR serializes one resource record to its stable textual form. Only
// records matching the question type count; an A query for an aliased name
// also returns the CNAME chain, which belongs to the CNAME query instead.
func renderRR(rr dns.RR, qtype uint16) (string, bool) {
	switch rec := rr.(type) {
	case *dns.A:
		if qtype == dns.TypeA {
			return rec.A.String(), true
		}
	case *dns.AAAA:
		if qtype == dns.TypeAAAA {
			return rec.AAAA.String(), true
		}
	case *dns.CNAME:
		if qtype == dns.TypeCNAME {
			return strings.TrimSuffix(rec.Target, "."), true
		}
	case *dns.TXT:
		if qtype == dns.TypeTXT {
			return strings.Join(rec.Txt, ""), true
		}
	case *dns.NS:
		if qtype == dns.TypeNS {
			return strings.TrimSuffix(rec.Ns, "."), true
		}
	case *dns.MX:
		if qtype == dns.TypeMX {
			return fmt.Sprintf("%s (Priority: %d)", strings.TrimSuffix(rec.Mx, "."), rec.Preference), true
		}
	case *dns.SOA:
		if qtype == dns.TypeSOA {
			return fmt.Sprintf("MName: %s, RName: %s, Serial: %d, Refresh: %d, Retry: %d, Expire: %d, Minimum: %d",
				strings.TrimSuffix(rec.Ns, "."), strings.TrimSuffix(rec.Mbox, "."),
				rec.Serial, rec.Refresh, rec.Retry, rec.Expire, rec.Minttl), true
		}
	}
	return "", false
}
