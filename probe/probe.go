package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

var (
	// ErrUnreachable covers every probe failure kind: refused, timed out,
	// no route. The scheduler does not distinguish them.
	ErrUnreachable = errors.New("unreachable")
	ErrNoPorts     = errors.New("no ports configured")
)

// Result is a successful reachability measurement for one (address, port)
// pair. Failed probes produce no Result.
type Result struct {
	Addr    string
	Port    int
	Latency time.Duration
	Time    time.Time
}

// Prober performs a single reachability and latency measurement.
type Prober interface {
	Probe(ctx context.Context, addr string) (*Result, error)
}

// TCPProber measures latency as the wall time to TCP connection
// establishment, no application handshake involved.
//
// Ports form a fallback chain: the first port (in configured order) that
// connects wins and the remaining ones are skipped. With AllPorts set, every
// port must connect and the reported port/latency is the fastest pair.
type TCPProber struct {
	Ports    []int
	Timeout  time.Duration
	AllPorts bool
}

func NewTCP(ports []int, timeout time.Duration, allPorts bool) *TCPProber {
	return &TCPProber{
		Ports:    ports,
		Timeout:  timeout,
		AllPorts: allPorts,
	}
}

// Probe tests addr against the configured port chain. addr is either a bare
// IP or an explicit "ip:port" pair; an explicit port bypasses the chain.
func (p *TCPProber) Probe(ctx context.Context, addr string) (*Result, error) {
	host, port, hasPort := splitAddr(addr)
	if net.ParseIP(host) == nil {
		return nil, fmt.Errorf("%w: %s is not an IP address", ErrUnreachable, host)
	}

	ports := p.Ports
	if hasPort {
		ports = []int{port}
	}
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}

	if p.AllPorts && !hasPort {
		return p.probeAll(ctx, host, ports)
	}

	var lastErr error
	for _, prt := range ports {
		latency, err := p.dial(ctx, host, prt)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return &Result{Addr: host, Port: prt, Latency: latency, Time: time.Now()}, nil
	}
	return nil, lastErr
}

// probeAll requires every port to connect and reports the fastest one.
func (p *TCPProber) probeAll(ctx context.Context, host string, ports []int) (*Result, error) {
	best := &Result{Addr: host, Latency: -1}
	for _, prt := range ports {
		latency, err := p.dial(ctx, host, prt)
		if err != nil {
			return nil, err
		}
		if best.Latency < 0 || latency < best.Latency {
			best.Port = prt
			best.Latency = latency
		}
	}
	best.Time = time.Now()
	return best, nil
}

func (p *TCPProber) dial(ctx context.Context, host string, port int) (time.Duration, error) {
	d := net.Dialer{Timeout: p.Timeout}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s port %d: %v", ErrUnreachable, host, port, err)
	}
	latency := time.Since(start)
	_ = conn.Close()
	return latency, nil
}

// splitAddr separates an optional explicit port from a candidate address.
func splitAddr(addr string) (host string, port int, ok bool) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0, false
	}
	n, err := strconv.Atoi(p)
	if err != nil || n < 1 || n > 65535 {
		return addr, 0, false
	}
	return h, n, true
}
