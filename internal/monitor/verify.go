package monitor

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streamscan/streamscan/internal/catalog"
	"github.com/streamscan/streamscan/internal/config"
	"github.com/streamscan/streamscan/internal/prober"
)

// Verification is the outcome of one liveness probe.
type Verification struct {
	// Live reports whether the URL answered as a stream.
	Live bool

	// ContentType is the observed content type, or the URL scheme for
	// non-HTTP protocols.
	ContentType string

	// Size is the number of body bytes sampled during verification.
	Size int
}

// Verifier re-probes a single URL for liveness.
// Implementations must treat every failure mode as "not live" rather
// than returning an error; a monitor cycle never aborts on one URL.
type Verifier interface {
	Verify(ctx context.Context, url string) Verification
}

// URLVerifier verifies stream URLs by protocol class.
//
// HTTP-family URLs (plain streams, HLS, DASH) get a GET with a body
// sample checked against content types, playlist markers, and container
// signatures; playlist bodies must reference media, not just carry the
// #EXTM3U header. RTSP URLs get a fresh OPTIONS handshake, WebSocket
// URLs the upgrade-and-subscribe exchange. RTMP URLs are checked for
// TCP reachability only, matching their discovery tier.
type URLVerifier struct {
	client     *http.Client
	timeout    time.Duration
	sniffBytes int
}

// VerifierOption configures a URLVerifier.
type VerifierOption func(*URLVerifier)

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) VerifierOption {
	return func(v *URLVerifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithSniffBytes sets the body sample size.
func WithSniffBytes(n int) VerifierOption {
	return func(v *URLVerifier) {
		if n > 0 {
			v.sniffBytes = n
		}
	}
}

// WithHTTPClient replaces the HTTP client, for tests.
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *URLVerifier) {
		v.client = client
	}
}

// NewURLVerifier creates a verifier with the default probe settings.
func NewURLVerifier(opts ...VerifierOption) *URLVerifier {
	v := &URLVerifier{
		timeout:    config.DefaultConnectTimeout,
		sniffBytes: config.DefaultSniffBytes,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.client == nil {
		v.client = &http.Client{
			Timeout: v.timeout,
			Transport: &http.Transport{
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // LAN devices use self-signed certs
				DisableKeepAlives: true,
			},
		}
	}

	return v
}

// Verify routes the URL to the right liveness check by its protocol
// class.
func (v *URLVerifier) Verify(ctx context.Context, rawURL string) Verification {
	switch catalog.Classify(rawURL) {
	case "rtsp":
		return v.verifyRTSP(ctx, rawURL)
	case "rtmp":
		return v.verifyReachable(ctx, rawURL, "rtmp")
	case "ws":
		return v.verifyWebSocket(ctx, rawURL)
	default:
		return v.verifyHTTP(ctx, rawURL)
	}
}

// verifyHTTP fetches a body sample and checks it for stream evidence.
func (v *URLVerifier) verifyHTTP(ctx context.Context, rawURL string) Verification {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Verification{}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Verification{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verification{}
	}

	sample, err := io.ReadAll(io.LimitReader(resp.Body, int64(v.sniffBytes)))
	if err != nil || len(sample) == 0 {
		return Verification{}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	// A bare #EXTM3U header can belong to an idle channel. Playlists
	// must reference stream variants or segments to count as live.
	if prober.IsHLSPlaylist(string(sample)) {
		if prober.IsActiveHLSPlaylist(string(sample)) {
			return Verification{Live: true, ContentType: contentType, Size: len(sample)}
		}
		return Verification{}
	}

	if catalog.IsVideoContentType(contentType) || prober.SniffStreamContent(sample) {
		return Verification{Live: true, ContentType: contentType, Size: len(sample)}
	}
	return Verification{}
}

// verifyWebSocket redoes the upgrade-and-subscribe exchange used at
// discovery time. Any reply within the window confirms the socket is
// still serving.
func (v *URLVerifier) verifyWebSocket(ctx context.Context, rawURL string) Verification {
	dialer := &websocket.Dialer{
		HandshakeTimeout: v.timeout,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // LAN devices use self-signed certs
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return Verification{}
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, prober.SubscribeMessage); err != nil {
		return Verification{}
	}
	if err := conn.SetReadDeadline(time.Now().Add(v.timeout)); err != nil {
		return Verification{}
	}

	_, reply, err := conn.ReadMessage()
	if err != nil || len(reply) == 0 {
		return Verification{}
	}
	return Verification{Live: true, ContentType: "ws", Size: len(reply)}
}

// verifyRTSP re-runs the OPTIONS handshake against the exact URL.
func (v *URLVerifier) verifyRTSP(ctx context.Context, rawURL string) Verification {
	host, port, ok := hostPort(rawURL, "554")
	if !ok {
		return Verification{}
	}

	dialer := &net.Dialer{Timeout: v.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return Verification{}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(v.timeout)); err != nil {
		return Verification{}
	}

	request := "OPTIONS " + rawURL + " RTSP/1.0\r\nCSeq: 1\r\n\r\n"
	if _, err := conn.Write([]byte(request)); err != nil {
		return Verification{}
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return Verification{}
	}

	response := string(buf[:n])
	if strings.Contains(response, "RTSP/1.0 200") || strings.Contains(response, "RTSP/1.1 200") {
		return Verification{Live: true, ContentType: "rtsp", Size: n}
	}
	return Verification{}
}

// verifyReachable treats a successful TCP dial as liveness, for
// protocols that cannot be content-verified.
func (v *URLVerifier) verifyReachable(ctx context.Context, rawURL, scheme string) Verification {
	host, port, ok := hostPort(rawURL, "1935")
	if !ok {
		return Verification{}
	}

	dialer := &net.Dialer{Timeout: v.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return Verification{}
	}
	_ = conn.Close()

	return Verification{Live: true, ContentType: scheme}
}

// hostPort extracts host and port from a URL, applying the protocol
// default when the port is omitted.
func hostPort(rawURL, defaultPort string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", false
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	return u.Hostname(), port, true
}
