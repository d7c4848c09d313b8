package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatic(t *testing.T) {
	r := Static("US")
	if got := r.Country(context.Background(), "198.51.100.7:1234"); got != "US" {
		t.Errorf("expected US, got %s", got)
	}
}

func TestHTTPResolver_ResolvesCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/198.51.100.7") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"countryCode":"DE","country":"Germany"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	if got := r.Country(context.Background(), "198.51.100.7:4321"); got != "DE" {
		t.Errorf("expected DE, got %s", got)
	}
}

func TestHTTPResolver_PrivateAddressesSkipLookup(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL)
	cases := []string{
		"127.0.0.1:1000",
		"10.1.2.3:1000",
		"192.168.0.5:1000",
		"not-an-ip:1000",
	}
	for _, addr := range cases {
		if got := r.Country(context.Background(), addr); got != Unknown {
			t.Errorf("Country(%s) = %s, want %s", addr, got, Unknown)
		}
	}
	if called {
		t.Error("no network call should be made for private or unparseable addresses")
	}
}

func TestHTTPResolver_UpstreamFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{broken`))
		}},
		{"empty code", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"countryCode":""}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			r := NewHTTPResolver(srv.URL)
			if got := r.Country(context.Background(), "198.51.100.7:1"); got != Unknown {
				t.Errorf("expected %s on upstream failure, got %s", Unknown, got)
			}
		})
	}
}
