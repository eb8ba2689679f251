package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the effective run configuration after merging defaults, the
// optional YAML file, and explicit command-line flags (flags win).
type Settings struct {
	Concurrency  int
	RateLimit    float64
	UserAgent    string
	Resolver     string
	Wordlist     string
	QueryTimeout time.Duration
	ProbeTimeout time.Duration
	CTTimeout    time.Duration
}

// Defaults mirror the sequential reference behavior: modest concurrency,
// 2.5s per DNS query, 4s per probe, 10s for the one CT call.
func Defaults() Settings {
	return Settings{
		Concurrency:  8,
		UserAgent:    "subrecon/1.0",
		QueryTimeout: 2500 * time.Millisecond,
		ProbeTimeout: 4 * time.Second,
		CTTimeout:    10 * time.Second,
	}
}

// File is the optional YAML configuration document.
type File struct {
	Concurrency    int     `yaml:"concurrency"`
	RateLimit      float64 `yaml:"rate_limit"`
	UserAgent      string  `yaml:"user_agent"`
	Resolver       string  `yaml:"resolver"`
	Wordlist       string  `yaml:"wordlist"`
	QueryTimeoutMS int     `yaml:"query_timeout_ms"`
	ProbeTimeoutMS int     `yaml:"probe_timeout_ms"`
	CTTimeoutMS    int     `yaml:"ct_timeout_ms"`
}

// Load parses the YAML file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the file's set fields onto the settings. Zero values in the
// file leave the current value alone.
func (s *Settings) Apply(f *File) {
	if f == nil {
		return
	}
	if f.Concurrency > 0 {
		s.Concurrency = f.Concurrency
	}
	if f.RateLimit > 0 {
		s.RateLimit = f.RateLimit
	}
	if f.UserAgent != "" {
		s.UserAgent = f.UserAgent
	}
	if f.Resolver != "" {
		s.Resolver = f.Resolver
	}
	if f.Wordlist != "" {
		s.Wordlist = f.Wordlist
	}
	if f.QueryTimeoutMS > 0 {
		s.QueryTimeout = time.Duration(f.QueryTimeoutMS) * time.Millisecond
	}
	if f.ProbeTimeoutMS > 0 {
		s.ProbeTimeout = time.Duration(f.ProbeTimeoutMS) * time.Millisecond
	}
	if f.CTTimeoutMS > 0 {
		s.CTTimeout = time.Duration(f.CTTimeoutMS) * time.Millisecond
	}
}
