package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"rateio/internal/log"
)

// Reasons reported for flagged requests.
const (
	ReasonPath      = "path"
	ReasonQuery     = "query"
	ReasonUserAgent = "user_agent"
	ReasonMethod    = "method"
	ReasonURLLength = "url_length"
	ReasonForwarded = "forwarded_chain"
)

const maxURLLength = 2048

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
}

// Reporter receives the reason of every flagged request.
type Reporter interface {
	Suspicious(reason string)
}

// Detector flags requests that look like probes and resolves client IPs
// behind trusted proxies.
type Detector struct {
	trustedProxies []*net.IPNet
	reporter       Reporter
	flagged        atomic.Int64
}

// NewDetector creates a detector that trusts loopback and private networks.
func NewDetector(reporter Reporter) *Detector {
	return &Detector{
		reporter: reporter,
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
			parseCIDR("::1/128"),
		},
	}
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// Inspect returns the first reason r looks suspicious, or "" when clean.
func (d *Detector) Inspect(r *http.Request) string {
	path := strings.ToLower(r.URL.Path)
	if containsAny(path, suspiciousPatterns) {
		return ReasonPath
	}
	if containsAny(strings.ToLower(r.URL.RawQuery), suspiciousPatterns) {
		return ReasonQuery
	}
	if containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) {
		return ReasonUserAgent
	}
	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return ReasonMethod
	}
	if len(r.URL.String()) > maxURLLength {
		return ReasonURLLength
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return ReasonForwarded
	}
	return ""
}

func containsAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Middleware logs flagged requests and rejects them with 400. Probes never
// reach the dashboard handlers.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := d.Inspect(r)
		if reason == "" {
			next.ServeHTTP(w, r)
			return
		}

		d.flagged.Add(1)
		if d.reporter != nil {
			d.reporter.Suspicious(reason)
		}
		log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
			"Suspicious request rejected",
			"reason", reason,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, d.ExtractClientIP(r))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	})
}

// Flagged returns the number of rejected requests.
func (d *Detector) Flagged() int64 {
	return d.flagged.Load()
}

// ExtractClientIP returns the client address. Forwarding headers are only
// honored when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !d.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}
