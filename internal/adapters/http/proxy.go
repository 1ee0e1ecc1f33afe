package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
	"github.com/melih/lighthouse-factory/internal/core/ports"
)

// ProxyHandler routes <slug>.<domain> requests to the app's published port.
type ProxyHandler struct {
	service  ports.ProvisioningService
	domain   string
	upstream string
	logger   zerolog.Logger
}

// NewProxyHandler creates a proxy for subdomains of baseDomain, forwarding to
// upstream (default 127.0.0.1) on the app's host port.
func NewProxyHandler(service ports.ProvisioningService, baseDomain, upstream string, logger zerolog.Logger) *ProxyHandler {
	if upstream == "" {
		upstream = "127.0.0.1"
	}
	return &ProxyHandler{
		service:  service,
		domain:   baseDomain,
		upstream: upstream,
		logger:   logger.With().Str("component", "proxy").Logger(),
	}
}

// ProxyRequest intercepts requests to app subdomains (e.g. acme-corp.localhost).
// Requests without a subdomain fall through to the API.
func (h *ProxyHandler) ProxyRequest(c *fiber.Ctx) error {
	host := c.Hostname()
	if hostOnly, _, err := net.SplitHostPort(host); err == nil {
		host = hostOnly
	}
	subdomain := appSubdomain(host, h.domain)
	if subdomain == "" {
		return c.Next()
	}

	app, err := h.service.Status(c.UserContext(), subdomain)
	if errors.Is(err, domain.ErrAppNotFound) {
		return c.Status(fiber.StatusNotFound).SendString(fmt.Sprintf("App '%s' not found", subdomain))
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to inspect app")
	}
	if !app.Running || app.HostPort == 0 {
		return c.Status(fiber.StatusServiceUnavailable).SendString(fmt.Sprintf("App '%s' is not running", subdomain))
	}

	remote, err := url.Parse(fmt.Sprintf("http://%s", net.JoinHostPort(h.upstream, fmt.Sprint(app.HostPort))))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Invalid target URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(remote)

	// nginx in the app container only knows its own host name.
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = remote.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		h.logger.Warn().Err(err).Str("app", subdomain).Str("target", remote.Host).Msg("proxy error")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "Proxy Info: target=%s error=%v", remote.Host, err)
	}

	return adaptor.HTTPHandler(proxy)(c)
}

// appSubdomain returns the single label in front of base, or "" when host
// is not an app host.
func appSubdomain(host, base string) string {
	if base == "" || net.ParseIP(host) != nil {
		return ""
	}
	sub, ok := strings.CutSuffix(host, "."+base)
	if !ok || sub == "" || sub == "www" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}
