package ws

import (
	"net"
	"net/http"
	"testing"
	"time"
)

func TestAbortAdmissionReleasesParticipant(t *testing.T) {
	srv := NewServer(DefaultServerConfig(), nil, nil)

	var gone []string
	srv.SetOnDisconnect(func(id string) { gone = append(gone, id) })

	server, client := net.Pipe()
	defer client.Close()

	c := &Connection{
		ID:         "p-1",
		Conn:       server,
		RemoteAddr: "203.0.113.9",
		CreatedAt:  time.Now(),
		LastPing:   time.Now(),
	}
	srv.conns.Add(c)

	srv.abortAdmission(c)

	if srv.conns.Get("p-1") != nil {
		t.Fatal("connection still present in manager after abort")
	}
	if _, err := server.Write([]byte("x")); err == nil {
		t.Fatal("expected write on aborted connection to fail")
	}
	if len(gone) != 1 || gone[0] != "p-1" {
		t.Fatalf("disconnect callback calls = %v, want [p-1]", gone)
	}

	// A second abort for the same connection must be a no-op.
	srv.abortAdmission(c)
	if len(gone) != 1 {
		t.Fatalf("disconnect callback fired %d times, want 1", len(gone))
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "198.51.100.2:43210", "", "198.51.100.2:43210"},
		{"single forwarded", "10.0.0.1:80", "203.0.113.5", "203.0.113.5"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.5, 10.0.0.2, 10.0.0.1", "203.0.113.5"},
		{"forwarded with spaces", "10.0.0.1:80", "  203.0.113.5  ", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remote, Header: http.Header{}}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientAddr(r); got != tt.want {
				t.Errorf("clientAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}
