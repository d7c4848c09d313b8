//go:build linux

package ws

import (
	"fmt"
	"net"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// eventBatchSize bounds how many readiness events a single Wait call returns.
const eventBatchSize = 128

// Epoll multiplexes read readiness for every client socket through one kernel
// epoll instance, so idle connections cost a map entry instead of a parked
// goroutine. The fd-to-conn index is needed because epoll_wait reports raw
// descriptors.
type Epoll struct {
	epfd  int
	mu    sync.RWMutex
	byFd  map[int]net.Conn
	batch []unix.EpollEvent // reused across Wait calls
}

// NewEpoll opens an epoll instance for registering client sockets.
func NewEpoll() (*Epoll, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Epoll{
		epfd:  epfd,
		byFd:  make(map[int]net.Conn),
		batch: make([]unix.EpollEvent, eventBatchSize),
	}, nil
}

// Add puts the connection's socket on the interest list. Read readiness and
// peer hangup both wake Wait; the read path discovers the closure from the
// failed frame read.
func (e *Epoll) Add(conn net.Conn) error {
	fd := socketFD(conn)
	if fd < 0 {
		return fmt.Errorf("epoll: connection exposes no file descriptor")
	}
	err := unix.EpollCtl(e.epfd, syscall.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLHUP | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	})
	if err != nil {
		return fmt.Errorf("epoll_ctl add fd %d: %w", fd, err)
	}

	e.mu.Lock()
	e.byFd[fd] = conn
	e.mu.Unlock()
	return nil
}

// Remove takes the connection's socket off the interest list and drops it
// from the index.
func (e *Epoll) Remove(conn net.Conn) error {
	fd := socketFD(conn)
	if err := unix.EpollCtl(e.epfd, syscall.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl del fd %d: %w", fd, err)
	}

	e.mu.Lock()
	delete(e.byFd, fd)
	e.mu.Unlock()
	return nil
}

// Wait blocks until at least one registered socket is readable and resolves
// the reported descriptors back to connections. A descriptor removed between
// the wakeup and the lookup is skipped, not an error.
func (e *Epoll) Wait() ([]net.Conn, error) {
	n, err := unix.EpollWait(e.epfd, e.batch, -1)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	ready := make([]net.Conn, 0, n)
	for i := 0; i < n; i++ {
		if conn, ok := e.byFd[int(e.batch[i].Fd)]; ok {
			ready = append(ready, conn)
		}
	}
	e.mu.RUnlock()
	return ready, nil
}

// Close releases the epoll descriptor. Client sockets are closed by their
// owner, not here.
func (e *Epoll) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byFd = nil
	return unix.Close(e.epfd)
}

// socketFD digs the descriptor out of a net.Conn via SyscallConn. Unlike
// File(), this does not dup the descriptor, so the number stays valid for
// epoll registration for the socket's lifetime.
func socketFD(conn net.Conn) int {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1
	}

	fd := -1
	_ = raw.Control(func(sfd uintptr) {
		fd = int(sfd)
	})
	return fd
}
