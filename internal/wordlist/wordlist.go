package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Defaults covers the common service and infra labels tried when no
// wordlist is supplied.
var Defaults = []string{
	"www", "mail", "owa", "vpn", "remote", "portal", "admin", "api", "dev",
	"test", "stage", "staging", "prod", "beta", "static", "cdn", "assets",
	"blog", "docs", "help", "support", "ns1", "ns2", "autodiscover", "m",
	"webmail", "smtp", "imap", "pop", "ftp", "git", "jira", "confluence",
}

// Load reads one label per line, skipping blanks and '#' comments. An
// unreadable file is the one input error that aborts a run, so it is
// returned rather than degraded.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist %s: %w", path, err)
	}
	return words, nil
}

// Candidates builds the deduplicated candidate hostname set: each word
// qualified against the domain, plus any pre-qualified extra names (CT
// output). Everything is lower-cased and the result is sorted ascending so
// the sweep order is deterministic.
func Candidates(domain string, words []string, extra ...string) []string {
	domain = strings.ToLower(domain)
	set := make(map[string]struct{}, len(words)+len(extra))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w+"."+domain] = struct{}{}
	}
	for _, host := range extra {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		set[host] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
