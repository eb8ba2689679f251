package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/v4lpr/subrecon/internal/whoisx"
)

// Record type sets per query context. Subdomain sweeps only care about
// address/alias records plus TXT; the root additionally gets the zone-level
// NS/MX/SOA types.
var (
	RootTypes = []string{"NS", "MX", "SOA", "TXT", "A", "AAAA"}
	SubTypes  = []string{"A", "AAAA", "CNAME", "TXT"}
)

// RecordSet maps a record-type tag to its values in answer order. An empty
// slice means "queried, nothing found or query failed" — the two are not
// distinguished.
type RecordSet map[string][]string

// NewRecordSet returns a set with every given type present and empty, so the
// JSON form always carries the full key set with [] rather than null.
func NewRecordSet(types []string) RecordSet {
	rs := make(RecordSet, len(types))
	for _, t := range types {
		rs[t] = []string{}
	}
	return rs
}

// HasAddress reports whether at least one of A/AAAA/CNAME is non-empty,
// which is what qualifies a host as live.
func (rs RecordSet) HasAddress() bool {
	return len(rs["A"]) > 0 || len(rs["AAAA"]) > 0 || len(rs["CNAME"]) > 0
}

// Entry is one resolved subdomain. HTTP is only set when probing ran.
type Entry struct {
	Records RecordSet         `json:"records"`
	HTTP    map[string]string `json:"http,omitempty"`
}

// Report is the terminal artifact of one recon run.
type Report struct {
	Domain     string           `json:"domain"`
	Root       RecordSet        `json:"root"`
	Subdomains map[string]Entry `json:"subdomains"`
	Whois      *whoisx.Summary  `json:"whois,omitempty"`
}

// Hosts returns the subdomain hostnames in ascending order. encoding/json
// already sorts map keys; console output goes through this.
func (r *Report) Hosts() []string {
	hosts := make([]string, 0, len(r.Subdomains))
	for h := range r.Subdomains {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// WriteJSON writes the indented JSON document. The caller treats a failure
// as fatal since the user explicitly asked for the file.
func WriteJSON(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ---------- Console output ----------

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	hostColor   = color.New(color.FgGreen)
)

// Print writes the human-readable summary: root records (non-empty types
// only) and one line per live host, with indented HTTP results when probing
// was performed.
func Print(r *Report) {
	headerColor.Printf("== %s ==\n", r.Domain)

	fmt.Println("\n┌─ Root DNS")
	printed := false
	for _, t := range RootTypes {
		vals := r.Root[t]
		if len(vals) == 0 {
			continue
		}
		printed = true
		fmt.Printf("│  %s:\n", t)
		for _, v := range vals {
			fmt.Printf("│    - %s\n", v)
		}
	}
	if !printed {
		fmt.Println("│  No records found")
	}
	fmt.Println("└────────────────────────────")

	if r.Whois != nil {
		fmt.Println("\n┌─ WHOIS")
		w := r.Whois
		if w.Registrar != "" {
			fmt.Printf("│  Registrar: %s\n", w.Registrar)
		}
		if w.Created != "" {
			fmt.Printf("│  Created: %s\n", w.Created)
		}
		if w.Updated != "" {
			fmt.Printf("│  Updated: %s\n", w.Updated)
		}
		if w.Expires != "" {
			fmt.Printf("│  Expires: %s\n", w.Expires)
		}
		if len(w.NameServers) > 0 {
			fmt.Printf("│  Name Servers: %s\n", strings.Join(w.NameServers, ", "))
		}
		if len(w.Statuses) > 0 {
			fmt.Printf("│  Statuses: %s\n", strings.Join(w.Statuses, ", "))
		}
		if w.DNSSEC != "" {
			fmt.Printf("│  DNSSEC: %s\n", w.DNSSEC)
		}
		fmt.Println("└────────────────────────────")
	}

	fmt.Printf("\n┌─ Resolved subdomains (%d)\n", len(r.Subdomains))
	if len(r.Subdomains) == 0 {
		fmt.Println("│  None resolved")
	}
	for _, host := range r.Hosts() {
		entry := r.Subdomains[host]
		parts := []string{}
		if v := entry.Records["CNAME"]; len(v) > 0 {
			parts = append(parts, "CNAME="+strings.Join(v, ","))
		}
		if v := entry.Records["A"]; len(v) > 0 {
			parts = append(parts, "A="+strings.Join(v, ","))
		}
		if v := entry.Records["AAAA"]; len(v) > 0 {
			parts = append(parts, "AAAA="+strings.Join(v, ","))
		}
		fmt.Printf("│  - %s  (%s)\n", hostColor.Sprint(host), strings.Join(parts, " | "))
		if entry.HTTP != nil {
			for _, scheme := range []string{"https", "http"} {
				if res, ok := entry.HTTP[scheme]; ok {
					fmt.Printf("│      %s: %s\n", scheme, res)
				}
			}
		}
	}
	fmt.Println("└────────────────────────────")
}
