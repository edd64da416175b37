package engine

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phiremock/phiremock/pkg/api"
	"github.com/phiremock/phiremock/pkg/expectation"
	"github.com/phiremock/phiremock/pkg/logging"
)

// DefaultProxyTimeout bounds upstream calls when no timeout is configured.
const DefaultProxyTimeout = 30 * time.Second

// base64BodyPrefix marks a static body holding base64-encoded binary
// content.
const base64BodyPrefix = "base64:"

// Responder realizes a matched expectation into a concrete HTTP response:
// static body, file body, or proxied upstream response, after an optional
// delay.
type Responder struct {
	client  *http.Client
	baseDir string
	log     *slog.Logger
}

// NewResponder creates a Responder. baseDir resolves relative bodyFileName
// paths; when empty they resolve against the working directory.
func NewResponder(proxyTimeout time.Duration, baseDir string, log *slog.Logger) *Responder {
	if proxyTimeout <= 0 {
		proxyTimeout = DefaultProxyTimeout
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Responder{
		client: &http.Client{
			Timeout: proxyTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseDir: baseDir,
		log:     log,
	}
}

// Write emits the response for the winning expectation and returns the
// status code sent, or 0 when the client went away before anything was
// written.
func (rb *Responder) Write(ctx context.Context, w http.ResponseWriter, exp *expectation.Expectation, req *ParsedRequest) int {
	if delay := delayOf(exp); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Client disconnected during the delay; nothing to send.
			return 0
		}
	}

	// When both a static response and a proxy target are present, the
	// static response wins and the proxy is ignored.
	if exp.Response != nil {
		return rb.writeStatic(w, exp.Response)
	}
	return rb.writeProxied(ctx, w, exp.ProxyTo, req)
}

// delayOf returns the configured delay for the expectation's response.
func delayOf(exp *expectation.Expectation) time.Duration {
	if exp.Response == nil {
		return 0
	}
	return time.Duration(exp.Response.DelayMillis) * time.Millisecond
}

// writeStatic emits a static response: status, headers, and either the
// inline body or the contents of the referenced file read at send time.
func (rb *Responder) writeStatic(w http.ResponseWriter, resp *expectation.Response) int {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}

	status := resp.StatusOrDefault()

	if resp.Body == "" && resp.BodyFileName != "" {
		return rb.writeBodyFile(w, status, resp.BodyFileName)
	}

	body := []byte(resp.Body)
	if strings.HasPrefix(resp.Body, base64BodyPrefix) {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body[len(base64BodyPrefix):])
		if err != nil {
			rb.log.Error("failed to decode base64 body", "error", err)
			api.WriteError(w, http.StatusInternalServerError, "invalid base64 response body")
			return http.StatusInternalServerError
		}
		body = decoded
	}

	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
	return status
}

// writeBodyFile streams the referenced file as the response body. The file
// is opened at send time; a missing or unreadable file yields a 500 with a
// diagnostic body and leaves the store untouched.
func (rb *Responder) writeBodyFile(w http.ResponseWriter, status int, fileName string) int {
	path := fileName
	if !filepath.IsAbs(path) && rb.baseDir != "" {
		path = filepath.Join(rb.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		rb.log.Error("failed to open body file", "file", path, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "failed to read body file: "+err.Error())
		return http.StatusInternalServerError
	}
	defer func() { _ = f.Close() }()

	w.WriteHeader(status)
	if _, err := io.Copy(w, f); err != nil {
		rb.log.Warn("failed to stream body file", "file", path, "error", err)
	}
	return status
}

// hopByHopHeaders must not be forwarded in either direction.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// writeProxied forwards the original request to the proxy target and
// mirrors the upstream status, headers, and body. A single attempt, bounded
// by the client timeout; failures synthesize a 500 diagnostic.
func (rb *Responder) writeProxied(ctx context.Context, w http.ResponseWriter, target string, req *ParsedRequest) int {
	outReq, err := http.NewRequestWithContext(ctx, req.Method(), target, strings.NewReader(string(req.Body())))
	if err != nil {
		rb.log.Warn("invalid proxy target", "target", target, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "invalid proxy target: "+err.Error())
		return http.StatusInternalServerError
	}

	copyHeaders(outReq.Header, req.Headers())
	removeHopByHopHeaders(outReq.Header)
	// Host follows the proxy URL, not the original request.
	outReq.Header.Del("Host")
	outReq.Host = outReq.URL.Host

	resp, err := rb.client.Do(outReq)
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; drop the response.
			return 0
		}
		rb.log.Warn("proxy request failed", "target", target, "error", err)
		api.WriteError(w, http.StatusInternalServerError, "proxy request failed: "+err.Error())
		return http.StatusInternalServerError
	}
	defer func() { _ = resp.Body.Close() }()

	copyHeaders(w.Header(), resp.Header)
	removeHopByHopHeaders(w.Header())
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		rb.log.Warn("failed to stream upstream body", "target", target, "error", err)
	}
	return resp.StatusCode
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// removeHopByHopHeaders removes headers that must not be forwarded.
func removeHopByHopHeaders(h http.Header) {
	for _, header := range hopByHopHeaders {
		h.Del(header)
	}
}
