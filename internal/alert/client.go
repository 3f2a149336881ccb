package alert

import (
	"net"
	"net/http"
	"time"
)

// Header names on outgoing alert deliveries. Receivers verify the
// signature against the timestamp and raw body, see docs/examples.
const (
	HeaderSignature  = "X-Shopwatch-Signature"
	HeaderTimestamp  = "X-Shopwatch-Timestamp"
	HeaderDeliveryID = "X-Shopwatch-Delivery-Id"

	alertUserAgent = "Shopwatch-Alert/1.0"
)

const (
	// ClientTimeout caps a whole delivery attempt; slow receivers eat
	// into the worker's batch otherwise.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// NewHTTPClient builds the client used for alert delivery. Redirects
// are not followed: a 3xx from the receiver counts as a failed
// attempt rather than a hop to an unvalidated URL.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// HTTPHeaders carries the per-delivery header values.
type HTTPHeaders struct {
	Signature  string
	Timestamp  string
	DeliveryID string
}

// SetAlertHeaders applies the delivery headers to an outgoing request.
func SetAlertHeaders(req *http.Request, headers HTTPHeaders) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", alertUserAgent)
	req.Header.Set(HeaderSignature, headers.Signature)
	req.Header.Set(HeaderTimestamp, headers.Timestamp)
	req.Header.Set(HeaderDeliveryID, headers.DeliveryID)
}
