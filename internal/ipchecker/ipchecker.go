// Package ipchecker restricts routes to clients inside a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/usrinfo/internal/logger"
)

// IPChecker extracts a client's IP address from an HTTP request and
// validates whether it belongs to the trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New creates an IPChecker for trustedSubnet in CIDR notation (e.g. "192.168.1.0/24").
// An empty trustedSubnet trusts nobody.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{
			trustedSubnet: nil,
		}, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	return &IPChecker{
		trustedSubnet: allowedNet,
	}, nil
}

// Check reports whether clientIP belongs to the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP looks at the "X-Real-IP" header, then the first address of
// "X-Forwarded-For", then RemoteAddr.
//
// The headers are taken as they come, so any client can claim any address.
// Deploy the service behind a reverse proxy that overwrites both headers
// before exposing a route guarded by TrustedOnly.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
		return ip, nil
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip, nil
		}
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	return net.ParseIP(host), nil
}

// IsTrustedSubnetEmpty returns true if the IPChecker was initialized
// without a trusted subnet.
func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}

// TrustedOnly answers 403 to every client outside the trusted subnet.
// The client address comes from GetClientIP and inherits its proxy requirement.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if checker.IsTrustedSubnetEmpty() {
			http.Error(res, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		clientIP, err := checker.GetClientIP(req)
		if err != nil {
			logger.Log.Debugw("cannot determine the client IP", "error", err)
			http.Error(res, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		if !checker.Check(clientIP) {
			http.Error(res, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		h.ServeHTTP(res, req)
	})
}
