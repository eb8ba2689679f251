package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/net/idna"
	"golang.org/x/time/rate"

	"github.com/v4lpr/subrecon/internal/config"
	"github.com/v4lpr/subrecon/internal/dnsx"
	"github.com/v4lpr/subrecon/internal/probe"
	"github.com/v4lpr/subrecon/internal/recon"
	"github.com/v4lpr/subrecon/internal/report"
	"github.com/v4lpr/subrecon/internal/utils"
	"github.com/v4lpr/subrecon/internal/wordlist"
)

func main() {
	var (
		domainFlag  = flag.String("domain", "", "Target domain (bare registrable name, e.g. example.com)")
		wordlistF   = flag.String("wordlist", "", "Path to a subdomain wordlist (one label per line, # comments)")
		noCRT       = flag.Bool("no-crt", false, "Skip the crt.sh certificate transparency lookup")
		doProbe     = flag.Bool("probe", false, "HEAD-probe resolved hosts over https and http")
		doWhois     = flag.Bool("whois", false, "Include a WHOIS summary for the root domain")
		jsonOut     = flag.String("json", "", "Write the full report as JSON to this file")
		configPath  = flag.String("config", "", "Optional YAML config file")
		resolverF   = flag.String("resolver", "", "DNS server as host:port (default: system resolver)")
		concurrency = flag.Int("concurrency", 0, "Concurrent DNS workers (default 8, 1 = sequential)")
		rateLimit   = flag.Float64("rate", 0, "Max outbound queries/requests per second (0 = unlimited)")
		userAgent   = flag.String("ua", "", "User-Agent for HTTP requests")
		quiet       = flag.Bool("quiet", false, "Suppress console report, only write JSON / log")
		logPath     = flag.String("log", "", "Append run logs to this file")
	)
	flag.Parse()

	domain := *domainFlag
	if domain == "" && flag.NArg() > 0 {
		domain = flag.Arg(0)
	}
	if domain == "" {
		fmt.Fprintln(os.Stderr, "[-] No target domain. Usage: subrecon -domain example.com [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	raw := domain
	domain, err := normalizeDomain(domain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] Invalid domain %q: %v\n", raw, err)
		os.Exit(2)
	}

	settings := config.Defaults()
	if *configPath != "" {
		file, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(2)
		}
		settings.Apply(file)
	}

	// Explicitly-set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "concurrency":
			settings.Concurrency = *concurrency
		case "rate":
			settings.RateLimit = *rateLimit
		case "ua":
			settings.UserAgent = *userAgent
		case "resolver":
			settings.Resolver = *resolverF
		case "wordlist":
			settings.Wordlist = *wordlistF
		}
	})

	logger, err := utils.NewLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] Cannot open log file: %v\n", err)
		os.Exit(2)
	}
	defer logger.Close()

	words := wordlist.Defaults
	if settings.Wordlist != "" {
		words, err = wordlist.Load(settings.Wordlist)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(1)
		}
	}

	var limiter *rate.Limiter
	if settings.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RateLimit), 1)
	}

	server := settings.Resolver
	if server == "" {
		server = dnsx.SystemServer()
	}
	resolver := dnsx.New(server, settings.QueryTimeout)
	resolver.Limiter = limiter

	var prober *probe.Prober
	if *doProbe {
		prober = probe.New(settings.ProbeTimeout, settings.UserAgent, limiter)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := recon.Options{
		Domain:       domain,
		Words:        words,
		UseCT:        !*noCRT,
		Probe:        *doProbe,
		Whois:        *doWhois,
		Concurrency:  settings.Concurrency,
		UserAgent:    settings.UserAgent,
		CTTimeout:    settings.CTTimeout,
		ShowProgress: !*quiet,
	}

	if !*quiet {
		fmt.Printf("[*] Sweeping %s (%d workers, resolver %s)\n", domain, settings.Concurrency, server)
	}

	runner := recon.New(opts, resolver, prober, logger)
	rep, runErr := runner.Run(ctx)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "[-] Sweep interrupted: %v\n", runErr)
	}

	if !*quiet {
		report.Print(rep)
	}

	if *jsonOut != "" {
		if err := report.WriteJSON(rep, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Printf("[+] Wrote JSON: %s\n", *jsonOut)
		}
	}
}

// normalizeDomain lowercases, strips a trailing dot, and converts IDN labels
// to their ASCII form so every downstream lookup sees one canonical name.
func normalizeDomain(raw string) (string, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if d == "" || strings.ContainsAny(d, " /@") {
		return "", fmt.Errorf("not a bare domain name")
	}
	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return "", err
	}
	return ascii, nil
}
