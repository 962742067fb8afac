// Package netscan wraps nmap and turns its report into per-host port
// records.
package netscan

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
	"github.com/go-tangra/go-tangra-sysinventory/internal/runner"
)

// Defaults used when no target or port range is configured.
const (
	DefaultTarget = "127.0.0.1"
	DefaultPorts  = "0-1023"
)

// Reserved keys of the scan record, co-located with the host entries.
const (
	CommandKey = "command"
	ErrorKey   = "error"
)

// Host states.
const (
	StateActive  = "Active"
	StateUnknown = "Unknown"
)

const tool = "nmap"

// Port is one open, closed or filtered port of a host.
type Port struct {
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
	Service  string `json:"service"`
	Version  string `json:"version"`
}

// Host is the scan result for one address.
type Host struct {
	State string `json:"state"`
	Ports []Port `json:"ports"`
}

// Record is the Red-scan document: host entries keyed by address, the
// literal command line, and an optional sentinel error.
type Record struct {
	Hosts   map[string]*Host
	Command string
	Error   string
}

// MarshalJSON writes hosts, command and error at the same level.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Hosts)+2)
	for addr, h := range r.Hosts {
		m[addr] = h
	}
	if r.Command != "" {
		m[CommandKey] = r.Command
	}
	if r.Error != "" {
		m[ErrorKey] = r.Error
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flat document back into hosts and reserved keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{Hosts: make(map[string]*Host)}
	for k, v := range raw {
		switch k {
		case CommandKey:
			if err := json.Unmarshal(v, &r.Command); err != nil {
				return err
			}
		case ErrorKey:
			if err := json.Unmarshal(v, &r.Error); err != nil {
				return err
			}
		default:
			var h Host
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			r.Hosts[k] = &h
		}
	}
	return nil
}

// Addresses returns the scanned host addresses in sorted order.
func (r Record) Addresses() []string {
	out := make([]string, 0, len(r.Hosts))
	for addr := range r.Hosts {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Scanner runs a single nmap scan per call. There are no retries.
type Scanner struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewScanner returns a Scanner. A nil logger uses slog.Default.
func NewScanner(r runner.Runner, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{runner: r, logger: logger}
}

// Args returns the nmap arguments for target and ports.
func Args(target, ports string) []string {
	return []string{"-p", ports, "-sV", target}
}

// Scan scans target over the port range ports. Failures produce a record
// carrying only the command and a sentinel error.
func (s *Scanner) Scan(ctx context.Context, target, ports string) Record {
	if target == "" {
		target = DefaultTarget
	}
	if ports == "" {
		ports = DefaultPorts
	}
	args := Args(target, ports)
	rec := Record{Hosts: make(map[string]*Host), Command: runner.CommandLine(tool, args...)}

	if !s.runner.Available(tool) {
		s.logger.Warn("tool not available", "domain", "network", "tool", tool)
		rec.Error = tool + " not available"
		return rec
	}

	out, err := s.runner.Run(ctx, "network scan", tool, args...)
	if err != nil {
		s.logger.Warn("error executing tool", "domain", "network", "tool", tool, "error", err)
		rec.Error = errors.Summary(err)
		return rec
	}

	rec.Hosts = ParseReport(out)
	if len(rec.Hosts) == 0 {
		s.logger.Warn("no data parsed", "domain", "network", "target", target)
		rec.Error = "no hosts found in scan report"
	}
	return rec
}

var portLine = regexp.MustCompile(`^\d+/(tcp|udp)\b`)

// ParseReport reads nmap's normal output. A "Nmap scan report for" line
// starts a host in state Unknown, "Host is up" marks it Active, and each
// port line is added to the current host.
func ParseReport(out string) map[string]*Host {
	hosts := make(map[string]*Host)
	var cur *Host
	for _, line := range extract.Lines(out) {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Nmap scan report for"):
			_, last := extract.LastField(line)
			addr := strings.Trim(last, "()")
			cur = &Host{State: StateUnknown, Ports: []Port{}}
			hosts[addr] = cur
		case strings.HasPrefix(line, "Host is up"):
			if cur != nil {
				cur.State = StateActive
			}
		case portLine.MatchString(line):
			if cur == nil {
				continue
			}
			if p, ok := parsePort(line); ok {
				cur.Ports = append(cur.Ports, p)
			}
		}
	}
	return hosts
}

func parsePort(line string) (Port, bool) {
	f := extract.Fields(line)
	if len(f) < 3 {
		return Port{}, false
	}
	number, proto, _ := strings.Cut(f[0], "/")
	version := extract.Unknown
	if len(f) > 3 {
		version = strings.Join(f[3:], " ")
	}
	return Port{
		Port:     number,
		Protocol: proto,
		State:    f[1],
		Service:  f[2],
		Version:  version,
	}, true
}
