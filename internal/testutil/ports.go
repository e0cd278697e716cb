// Package testutil holds helpers shared by tests that need real sockets.
package testutil

import (
	"fmt"
	"net"
	"sync"
	"testing"
)

var (
	portMutex = &sync.Mutex{}
	usedPorts = make(map[int]struct{})
)

// GetRandomPort returns a free TCP port that no other caller in this process
// has been handed.
func GetRandomPort(t *testing.T) int {
	t.Helper()
	for {
		p := freePort(t)

		portMutex.Lock()
		_, taken := usedPorts[p]
		if !taken {
			usedPorts[p] = struct{}{}
		}
		portMutex.Unlock()

		if !taken {
			return p
		}
	}
}

// GetRandomListeningPort returns a loopback host:port that was just
// confirmed bindable.
func GetRandomListeningPort(t *testing.T) string {
	t.Helper()
	for {
		addr := fmt.Sprintf("127.0.0.1:%d", GetRandomPort(t))
		l, err := net.Listen("tcp", addr)
		if err != nil {
			continue
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Failed to close listener: %v", err)
		}
		return addr
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to get random port: %v", err)
	}
	p := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		t.Fatalf("Failed to close listener: %v", err)
	}
	return p
}
