package recon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/v4lpr/subrecon/internal/ct"
	"github.com/v4lpr/subrecon/internal/dnsx"
	"github.com/v4lpr/subrecon/internal/probe"
	"github.com/v4lpr/subrecon/internal/report"
	"github.com/v4lpr/subrecon/internal/utils"
	"github.com/v4lpr/subrecon/internal/whoisx"
	"github.com/v4lpr/subrecon/internal/wordlist"
)

// Options selects what one recon run does. Words is the already-loaded
// label list; the caller decides between a wordlist file and the built-ins.
type Options struct {
	Domain       string
	Words        []string
	UseCT        bool
	Probe        bool
	Whois        bool
	Concurrency  int
	UserAgent    string
	CTBaseURL    string
	CTTimeout    time.Duration
	ShowProgress bool
}

// Runner drives the pipeline: root records, candidate merge, concurrent
// resolution, live-host filter, optional probing, report assembly.
type Runner struct {
	opts     Options
	resolver *dnsx.Resolver
	prober   *probe.Prober
	log      *utils.Logger
	ctClient *http.Client

	// WhoisFunc is swappable so tests run without registry traffic.
	WhoisFunc func(string) (*whoisx.Summary, error)
}

func New(opts Options, resolver *dnsx.Resolver, prober *probe.Prober, log *utils.Logger) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CTBaseURL == "" {
		opts.CTBaseURL = ct.DefaultBaseURL
	}
	if opts.CTTimeout <= 0 {
		opts.CTTimeout = 10 * time.Second
	}
	return &Runner{
		opts:      opts,
		resolver:  resolver,
		prober:    prober,
		log:       log,
		ctClient:  &http.Client{Timeout: opts.CTTimeout},
		WhoisFunc: whoisx.Lookup,
	}
}

type hostResult struct {
	host  string
	entry report.Entry
}

// Run executes the pipeline. The returned report is always internally
// consistent; when ctx is cancelled mid-sweep the entries committed so far
// are kept and ctx's error is returned alongside.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	rep := &report.Report{
		Domain:     r.opts.Domain,
		Subdomains: map[string]report.Entry{},
	}

	r.log.Infof("recon start for %s", r.opts.Domain)
	rep.Root = r.resolver.ResolveRoot(ctx, r.opts.Domain)

	var extra []string
	if r.opts.UseCT {
		names, err := ct.Fetch(ctx, r.ctClient, r.opts.CTBaseURL, r.opts.Domain, r.opts.UserAgent)
		if err != nil {
			r.log.Errorf("ct lookup degraded to empty set: %v", err)
		} else {
			r.log.Infof("ct lookup returned %d names", len(names))
			extra = names
		}
	}

	candidates := wordlist.Candidates(r.opts.Domain, r.opts.Words, extra...)
	r.log.Infof("resolving %d candidates with %d workers", len(candidates), r.opts.Concurrency)
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	var bar *progressbar.ProgressBar
	if r.opts.ShowProgress && len(candidates) > 0 {
		bar = progressbar.Default(int64(len(candidates)), "resolving")
	}

	jobs := make(chan string)
	results := make(chan hostResult)

	workers := r.opts.Concurrency
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				r.sweepHost(ctx, host, results)
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, h := range candidates {
			select {
			case jobs <- h:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single writer: workers never touch the map, so ordering falls out of
	// the sorted candidate list at print/marshal time.
	for res := range results {
		rep.Subdomains[res.host] = res.entry
	}
	if bar != nil {
		bar.Finish()
	}

	if r.opts.Whois && ctx.Err() == nil {
		if summary, err := r.WhoisFunc(r.opts.Domain); err != nil {
			r.log.Errorf("whois skipped: %v", err)
		} else {
			rep.Whois = summary
		}
	}

	r.log.Infof("recon done: %d live hosts", len(rep.Subdomains))
	return rep, ctx.Err()
}

// sweepHost resolves one candidate and, for live hosts, probes and emits a
// fully-built entry. Dead names are dropped silently; they are expected,
// not errors.
func (r *Runner) sweepHost(ctx context.Context, host string, results chan<- hostResult) {
	records := r.resolver.Resolve(ctx, host)
	if !records.HasAddress() {
		return
	}
	entry := report.Entry{Records: records}
	if r.opts.Probe && r.prober != nil {
		entry.HTTP = r.prober.Host(ctx, host)
	}
	select {
	case results <- hostResult{host: host, entry: entry}:
	case <-ctx.Done():
	}
}
