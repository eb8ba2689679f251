package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds one HEAD request including redirects.
const DefaultTimeout = 4 * time.Second

// Schemes is the fixed probe order.
var Schemes = []string{"https", "http"}

// Prober issues lightweight HEAD requests to observe reachability and
// redirect behavior. Each scheme is probed independently; a failure on one
// never blocks the other.
type Prober struct {
	Client    *http.Client
	UserAgent string
	Limiter   *rate.Limiter
}

// New builds a prober with the given timeout. The client follows redirects
// up to the net/http default of 10 hops.
func New(timeout time.Duration, userAgent string, limiter *rate.Limiter) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Limiter:   limiter,
	}
}

// Host probes the host over https then http. The result map always carries
// both scheme keys; each value is either "<status> -> <final-url>" or an
// "ERR (<category>)" tag.
func (p *Prober) Host(ctx context.Context, host string) map[string]string {
	out := make(map[string]string, len(Schemes))
	for _, scheme := range Schemes {
		out[scheme] = p.fetch(ctx, scheme+"://"+host)
	}
	return out
}

func (p *Prober) fetch(ctx context.Context, rawURL string) string {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return failTag(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return failTag(err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return failTag(err)
	}
	resp.Body.Close()

	// The client already followed redirects, so this is the final response
	// and the URL it actually landed on.
	return fmt.Sprintf("%d -> %s", resp.StatusCode, resp.Request.URL.String())
}

func failTag(err error) string {
	return fmt.Sprintf("ERR (%s)", categorize(err))
}

// categorize maps a transport failure to a stable tag. The categories are
// coarse on purpose; the report only needs to say why a scheme was
// unreachable.
func categorize(err error) string {
	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError

	switch {
	case errors.As(err, &certErr), errors.As(err, &recErr):
		return "tls error"
	case errors.As(err, &dnsErr):
		return "dns error"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case strings.Contains(err.Error(), "stopped after"):
		return "too many redirects"
	case isTimeout(err):
		return "timeout"
	default:
		return "other"
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
