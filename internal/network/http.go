package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"

	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/logger"
)

const LogProxyNotConfigured = "Proxy not configured, using direct connection"

type HTTPClientConfig struct {
	ProxyURL              string
	NoProxy               []string
	Timeout               time.Duration
	DisableKeepAlives     bool
	MaxIdleConns          int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ForceAttemptHTTP2     bool
	// FollowRedirects=false returns 3xx responses to the caller as-is.
	FollowRedirects bool
}

func NewDefaultHTTPClientConfig(cfg config.HTTPConfig) HTTPClientConfig {
	return HTTPClientConfig{
		ProxyURL:              cfg.GetProxy(),
		NoProxy:               cfg.GetNoProxy(),
		Timeout:               3 * time.Minute,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		FollowRedirects:       true,
	}
}

// NewImageHTTPClientConfig is tuned for the image service: the submit call
// answers with a redirect whose Location carries the request id.
func NewImageHTTPClientConfig(cfg config.HTTPConfig) HTTPClientConfig {
	conf := NewDefaultHTTPClientConfig(cfg)
	conf.Timeout = time.Minute
	conf.MaxIdleConns = 10
	conf.IdleConnTimeout = 30 * time.Second
	conf.FollowRedirects = false
	return conf
}

func SetupHTTPClient(cfg HTTPClientConfig, log logger.Logger) (*http.Client, error) {
	transport := &http.Transport{
		ForceAttemptHTTP2:     cfg.ForceAttemptHTTP2,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
	}

	if cfg.ProxyURL != "" {
		if err := configureProxy(transport, cfg.ProxyURL, cfg.NoProxy, log); err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
	} else {
		log.Info(LogProxyNotConfigured)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

// SetupWebsocketDialer builds a dialer that honours the same proxy settings
// as the HTTP clients.
func SetupWebsocketDialer(cfg HTTPClientConfig, log logger.Logger) (*websocket.Dialer, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: 45 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}
	if cfg.ProxyURL == "" {
		return dialer, nil
	}

	transport := &http.Transport{}
	if err := configureProxy(transport, cfg.ProxyURL, cfg.NoProxy, log); err != nil {
		return nil, fmt.Errorf("failed to configure proxy: %w", err)
	}
	dialer.Proxy = transport.Proxy
	dialer.NetDialContext = transport.DialContext
	return dialer, nil
}

func configureProxy(transport *http.Transport, proxyURL string, noProxy []string, log logger.Logger) error {
	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("failed to parse proxy URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "socks5", "socks5h":
		dialContext, err := createSOCKS5ProxyDialer(parsedURL, noProxy, log)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = dialContext
	case "http", "https":
		transport.Proxy = createProxyFunc(parsedURL, noProxy)
		log.Info(fmt.Sprintf("Proxy configured: %s, no_proxy: %v", parsedURL.Redacted(), noProxy))
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	return nil
}

func createProxyFunc(proxyURL *url.URL, noProxy []string) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if excluded(req.URL.Hostname(), noProxy) {
			return nil, nil
		}
		return proxyURL, nil
	}
}

func excluded(host string, noProxy []string) bool {
	for _, exclusion := range noProxy {
		if matchHost(host, exclusion) {
			return true
		}
	}
	return false
}

func matchHost(host, pattern string) bool {
	if strings.Contains(pattern, "*") {
		expr := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
		matched, _ := regexp.MatchString("^"+expr+"$", host)
		return matched
	}
	return host == pattern
}

func createSimpleDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
}

func createSOCKS5ProxyDialer(proxyURL *url.URL, noProxy []string, log logger.Logger) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	directDialer := createSimpleDialer()

	proxyDialer, err := proxy.FromURL(proxyURL, directDialer)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
	}
	contextDialer, ok := proxyDialer.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("proxy dialer does not support contexts")
	}
	log.Info(fmt.Sprintf("Proxy configured: %s, no_proxy: %v", proxyURL.Redacted(), noProxy))

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if excluded(host, noProxy) {
			return directDialer.DialContext(ctx, network, addr)
		}
		return contextDialer.DialContext(ctx, network, addr)
	}, nil
}
