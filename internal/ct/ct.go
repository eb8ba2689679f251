package ct

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// DefaultBaseURL is the public certificate-transparency aggregation
// endpoint. Tests point this at an httptest server.
const DefaultBaseURL = "https://crt.sh"

type logEntry struct {
	NameValue string `json:"name_value"`
}

// Fetch queries the CT aggregator for every certificate covering the domain
// and returns the in-subtree hostnames, normalized: trimmed, lower-cased,
// wildcard prefix stripped. One certificate's name_value can carry several
// newline-separated names. CT data is best-effort; callers treat an error as
// "no CT-derived candidates".
func Fetch(ctx context.Context, client *http.Client, baseURL, domain, userAgent string) ([]string, error) {
	domain = strings.ToLower(domain)
	u := fmt.Sprintf("%s/?q=%s&output=json", strings.TrimRight(baseURL, "/"), url.QueryEscape("%."+domain))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("ct request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ct request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ct HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ct read failed: %w", err)
	}
	var entries []logEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("ct json parse failed: %w", err)
	}

	set := map[string]struct{}{}
	for _, e := range entries {
		for _, line := range strings.Split(e.NameValue, "\n") {
			if name, ok := normalize(line, domain); ok {
				set[name] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// normalize keeps a CT name only if it sits in the target domain's subtree.
// Log entries can carry stale or off-domain names; those are discarded here,
// liveness filtering happens at resolution time.
func normalize(name, domain string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "*.")
	if name == "" {
		return "", false
	}
	if name != domain && !strings.HasSuffix(name, "."+domain) {
		return "", false
	}
	return name, true
}
