// Package geo resolves client network addresses to ISO country codes. The
// pairing core only consumes the resolver interface; this package provides an
// HTTP-based resolver for ip-api style services plus a Redis cache wrapper.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// Unknown is returned when an address cannot be resolved.
const Unknown = "UN"

// Resolver maps a network address to a two-letter country code, returning
// Unknown on any failure. Implementations must not block beyond their
// context deadline.
type Resolver interface {
	Country(ctx context.Context, address string) string
}

// Static returns a resolver that reports the same country for every address.
// Used in development and as the terminal fallback.
func Static(country string) Resolver {
	return staticResolver(country)
}

type staticResolver string

func (s staticResolver) Country(ctx context.Context, address string) string {
	return string(s)
}

// HTTPResolver queries an ip-api compatible endpoint
// (GET <BaseURL>/<ip> -> {"countryCode":"US", ...}).
type HTTPResolver struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPResolver creates an HTTPResolver with a 3s request timeout.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// Country resolves the address via the HTTP endpoint. Private and
// unparseable addresses resolve to Unknown without a network call.
func (r *HTTPResolver) Country(ctx context.Context, address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return Unknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", r.BaseURL, host), nil)
	if err != nil {
		return Unknown
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		log.Printf("[geo] lookup %s: %v", host, err)
		return Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown
	}

	var body struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.CountryCode == "" {
		return Unknown
	}
	return body.CountryCode
}
