package httpclient

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(DefaultConfig(30 * time.Second))

	assert.Equal(t, 30*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok, "expected *http.Transport")
	assert.Equal(t, 100, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, transport.IdleConnTimeout)
}

func TestNewHTTPClient_ZeroDisablesTimeout(t *testing.T) {
	client := NewHTTPClient(DefaultConfig(0))
	assert.Zero(t, client.Timeout)
}

func TestPool_ReusesClientPerTimeout(t *testing.T) {
	pool := NewPool()

	first := pool.Get(30 * time.Second)
	again := pool.Get(30 * time.Second)
	other := pool.Get(5 * time.Second)

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, 30*time.Second, first.Timeout)
	assert.Equal(t, 5*time.Second, other.Timeout)
}

func TestPool_ConcurrentGet(t *testing.T) {
	pool := NewPool()

	const workers = 16
	clients := make([]*http.Client, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i] = pool.Get(time.Minute)
		}(i)
	}
	wg.Wait()

	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
	pool.CloseIdleConnections()
}

func TestDefaultConfig_ResponseHeaderTimeoutFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset", "", 600 * time.Second},
		{"seconds", "45", 45 * time.Second},
		{"duration", "2m", 2 * time.Minute},
		{"garbage", "soon", 600 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HTTP_RESPONSE_HEADER_TIMEOUT", tt.value)
			cfg := DefaultConfig(time.Second)
			assert.Equal(t, tt.want, cfg.ResponseHeaderTimeout)
		})
	}
}
