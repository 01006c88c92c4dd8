package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen opens a loopback listener and returns its port.
func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a loopback port that was just released and therefore
// refuses connections.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestProbeSuccess(t *testing.T) {
	_, port := listen(t)
	p := NewTCP([]int{port}, 2*time.Second, false)

	res, err := p.Probe(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", res.Addr)
	assert.Equal(t, port, res.Port)
	assert.Greater(t, res.Latency, time.Duration(0))
	assert.False(t, res.Time.IsZero())
}

func TestProbeRefused(t *testing.T) {
	p := NewTCP([]int{closedPort(t)}, time.Second, false)

	res, err := p.Probe(context.Background(), "127.0.0.1")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestProbeFirstSuccessChain(t *testing.T) {
	_, open := listen(t)
	closed := closedPort(t)
	p := NewTCP([]int{closed, open}, time.Second, false)

	res, err := p.Probe(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, open, res.Port, "fallback chain must land on the first reachable port")
}

func TestProbeChainStopsAtFirstSuccess(t *testing.T) {
	_, first := listen(t)
	p := NewTCP([]int{first, closedPort(t)}, time.Second, false)

	res, err := p.Probe(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, first, res.Port)
}

func TestProbeAllPortsPolicy(t *testing.T) {
	_, a := listen(t)
	_, b := listen(t)

	p := NewTCP([]int{a, b}, time.Second, true)
	res, err := p.Probe(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Contains(t, []int{a, b}, res.Port)

	// One closed port fails the whole candidate under the all-ports policy.
	p = NewTCP([]int{a, closedPort(t)}, time.Second, true)
	res, err = p.Probe(context.Background(), "127.0.0.1")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestProbeExplicitPort(t *testing.T) {
	_, open := listen(t)
	p := NewTCP([]int{closedPort(t)}, time.Second, false)

	res, err := p.Probe(context.Background(), net.JoinHostPort("127.0.0.1", strconv.Itoa(open)))
	require.NoError(t, err)
	assert.Equal(t, open, res.Port, "explicit candidate port bypasses the chain")
}

func TestProbeNonIPAddress(t *testing.T) {
	p := NewTCP([]int{80}, time.Second, false)

	for _, addr := range []string{"garbage", "example.com", "1.2.3.4.5"} {
		res, err := p.Probe(context.Background(), addr)
		assert.Nil(t, res, "addr %q", addr)
		assert.ErrorIs(t, err, ErrUnreachable, "addr %q", addr)
	}
}

func TestProbeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewTCP([]int{closedPort(t), closedPort(t)}, time.Second, false)
	res, err := p.Probe(ctx, "127.0.0.1")
	assert.Nil(t, res)
	assert.Error(t, err)
}

func TestProbeNoPorts(t *testing.T) {
	p := NewTCP(nil, time.Second, false)
	_, err := p.Probe(context.Background(), "1.1.1.1")
	assert.True(t, errors.Is(err, ErrNoPorts))
}
