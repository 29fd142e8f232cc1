package netutil

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewChargerTransport creates the HTTP transport used to talk to a charger on
// the local network. The charger accepts few parallel connections, so idle
// connections per host are kept low.
func NewChargerTransport(logger *logrus.Logger) *http.Transport {
	return &http.Transport{
		Proxy:                 nil, // the charger is never behind a proxy
		DialContext:           createDialContext(logger),
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
	}
}

func createDialContext(logger *logrus.Logger) func(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		if IsLocalOrPrivateHost(host) {
			logger.WithField("host", host).Debug("Connecting to charger on local network")
		} else {
			logger.WithField("host", host).Warn("Charger host is not a local address; the v1 API is unauthenticated")
		}

		return dialer.DialContext(ctx, network, addr)
	}
}

// IsLocalOrPrivateHost checks if a hostname is localhost or a private network address
func IsLocalOrPrivateHost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".lan") || strings.HasSuffix(host, ".home.arpa") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Bare hostnames like "go-echarger_012345" resolve via the local DNS.
		return !strings.Contains(host, ".")
	}

	return isPrivateIP(ip)
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// NewHTTPClient creates an HTTP client for charger requests.
func NewHTTPClient(timeout time.Duration, logger *logrus.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewChargerTransport(logger),
	}
}
