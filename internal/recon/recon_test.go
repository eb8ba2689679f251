package recon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v4lpr/subrecon/internal/dnsx"
	"github.com/v4lpr/subrecon/internal/probe"
	"github.com/v4lpr/subrecon/internal/report"
	"github.com/v4lpr/subrecon/internal/whoisx"
)

// stubExchanger answers DNS queries from a canned table keyed by
// "name|TYPE".
type stubExchanger struct {
	answers map[string][]dns.RR
	err     error
}

func (s *stubExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	q := m.Question[0]
	resp := new(dns.Msg)
	resp.SetReply(m)
	resp.Answer = s.answers[q.Name+"|"+dns.TypeToString[q.Qtype]]
	return resp, 0, nil
}

func aRecord(name, ip string) dns.RR {
	return &dns.A{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
		A:   net.ParseIP(ip),
	}
}

func nsRecord(name, target string) dns.RR {
	return &dns.NS{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: 300},
		Ns:  target,
	}
}

func stubResolver(ex dnsx.Exchanger) *dnsx.Resolver {
	r := dnsx.New("stub:53", time.Second)
	r.Client = ex
	return r
}

func exampleExchanger() *stubExchanger {
	return &stubExchanger{answers: map[string][]dns.RR{
		"example.com.|NS":     {nsRecord("example.com.", "a.iana-servers.net.")},
		"www.example.com.|A":  {aRecord("www.example.com.", "93.184.216.34")},
		"api.example.com.|A":  {aRecord("api.example.com.", "203.0.113.10")},
		"dev.example.com.|A":  {aRecord("dev.example.com.", "203.0.113.11")},
		"example.com.|A":      {aRecord("example.com.", "93.184.216.34")},
	}}
}

func newTestRunner(opts Options, ex dnsx.Exchanger) *Runner {
	r := New(opts, stubResolver(ex), nil, nil)
	r.WhoisFunc = func(string) (*whoisx.Summary, error) {
		return nil, errors.New("not stubbed")
	}
	return r
}

func TestRunFiltersAndSorts(t *testing.T) {
	opts := Options{
		Domain:      "example.com",
		Words:       []string{"www", "admin", "api"},
		Concurrency: 4,
	}
	rep, err := newTestRunner(opts, exampleExchanger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "example.com", rep.Domain)
	assert.Equal(t, []string{"a.iana-servers.net"}, rep.Root["NS"])
	assert.Equal(t, []string{"api.example.com", "www.example.com"}, rep.Hosts())
	assert.Equal(t, []string{"93.184.216.34"}, rep.Subdomains["www.example.com"].Records["A"])
	// admin resolved to nothing, so it never reaches the report.
	assert.NotContains(t, rep.Subdomains, "admin.example.com")
}

func TestRunDeterministicAcrossConcurrency(t *testing.T) {
	words := []string{"www", "api", "dev", "admin", "mail", "cdn"}
	var reports []*report.Report
	for _, workers := range []int{1, 8} {
		opts := Options{Domain: "example.com", Words: words, Concurrency: workers}
		rep, err := newTestRunner(opts, exampleExchanger()).Run(context.Background())
		require.NoError(t, err)
		reports = append(reports, rep)
	}
	assert.Equal(t, reports[0], reports[1])
	assert.IsIncreasing(t, reports[1].Hosts())
}

func TestRunMergesCTCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name_value": "*.dev.example.com\noff-domain.net"}]`))
	}))
	defer srv.Close()

	opts := Options{
		Domain:      "example.com",
		Words:       []string{"www"},
		UseCT:       true,
		CTBaseURL:   srv.URL,
		Concurrency: 2,
	}
	rep, err := newTestRunner(opts, exampleExchanger()).Run(context.Background())
	require.NoError(t, err)

	// Wildcard marker stripped, off-domain name discarded.
	assert.Contains(t, rep.Subdomains, "dev.example.com")
	assert.Equal(t, []string{"dev.example.com", "www.example.com"}, rep.Hosts())
}

func TestRunAllQueriesFail(t *testing.T) {
	opts := Options{Domain: "example.com", Words: []string{"www", "admin"}, Concurrency: 2}
	rep, err := newTestRunner(opts, &stubExchanger{err: errors.New("i/o timeout")}).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rep.Subdomains)
	for _, typ := range report.RootTypes {
		assert.NotNil(t, rep.Root[typ], typ)
		assert.Empty(t, rep.Root[typ], typ)
	}
}

// stubTransport answers every probe with a plain 200.
type stubTransport struct{}

func (stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

func TestRunProbesLiveHosts(t *testing.T) {
	prober := probe.New(time.Second, "subrecon-test/1.0", nil)
	prober.Client = &http.Client{Transport: stubTransport{}}

	opts := Options{
		Domain:      "example.com",
		Words:       []string{"www", "admin"},
		Probe:       true,
		Concurrency: 2,
	}
	r := New(opts, stubResolver(exampleExchanger()), prober, nil)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	entry := rep.Subdomains["www.example.com"]
	require.NotNil(t, entry.HTTP)
	assert.Equal(t, "200 -> https://www.example.com", entry.HTTP["https"])
	assert.Equal(t, "200 -> http://www.example.com", entry.HTTP["http"])
}

func TestRunWhois(t *testing.T) {
	opts := Options{Domain: "example.com", Words: []string{"www"}, Whois: true, Concurrency: 1}
	r := newTestRunner(opts, exampleExchanger())
	r.WhoisFunc = func(domain string) (*whoisx.Summary, error) {
		assert.Equal(t, "example.com", domain)
		return &whoisx.Summary{Registrar: "IANA"}, nil
	}
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep.Whois)
	assert.Equal(t, "IANA", rep.Whois.Registrar)
}

func TestRunWhoisFailureNonFatal(t *testing.T) {
	opts := Options{Domain: "example.com", Words: []string{"www"}, Whois: true, Concurrency: 1}
	rep, err := newTestRunner(opts, exampleExchanger()).Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rep.Whois)
	assert.Contains(t, rep.Subdomains, "www.example.com")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{Domain: "example.com", Words: []string{"www"}, Concurrency: 2}
	rep, err := newTestRunner(opts, exampleExchanger()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	// Whatever was committed must be fully-formed entries.
	for host, entry := range rep.Subdomains {
		assert.NotNil(t, entry.Records, host)
	}
}
