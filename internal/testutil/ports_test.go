package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomPort(t *testing.T) {
	port := GetRandomPort(t)
	assert.Greater(t, port, 0)
	assert.Less(t, port, 65536)
}

func TestGetRandomPortUnique(t *testing.T) {
	ports := make(map[int]bool)
	for range 10 {
		port := GetRandomPort(t)
		assert.False(t, ports[port], "Port %d was already used", port)
		ports[port] = true
	}
}

func TestGetRandomPortConcurrency(t *testing.T) {
	var wg sync.WaitGroup
	portChan := make(chan int, 20)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			port := GetRandomPort(t)
			portChan <- port
		}()
	}

	wg.Wait()
	close(portChan)

	ports := make(map[int]bool)
	for port := range portChan {
		assert.False(t, ports[port], "Port %d was already used", port)
		ports[port] = true
	}
}

func TestGetRandomListeningPort(t *testing.T) {
	addr := GetRandomListeningPort(t)
	assert.Contains(t, addr, "127.0.0.1:")
	assert.Greater(t, len(addr), len("127.0.0.1:"))
}

func TestLogBuffer(t *testing.T) {
	t.Parallel()

	var buf LogBuffer
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_, _ = buf.Write([]byte("level=INFO msg=\"HTTP request\"\n"))
		})
	}
	wg.Wait()

	assert.Len(t, buf.Lines(), 10)
	assert.Equal(t, 10, buf.Count("HTTP request"))

	_, _ = buf.Write([]byte("level=WARN msg=partial"))
	assert.Len(t, buf.Lines(), 10, "partial lines are not counted")
	assert.Equal(t, 0, buf.Count("partial"))

	_, _ = buf.Write([]byte("\n"))
	assert.Equal(t, 1, buf.Count("partial"))
}
