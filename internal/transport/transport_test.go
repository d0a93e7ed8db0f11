package transport

import (
	"bytes"
	"testing"
	"time"

	"github.com/rescrv/pocdb/internal/config"
)

func TestMemorySendRecv(t *testing.T) {
	net := NewNetwork()
	a := net.Join(config.HostA)
	b := net.Join(config.HostB)
	defer a.Close()
	defer b.Close()

	if err := a.Send(config.HostB, []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	host, body, err := b.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if host != config.HostA || !bytes.Equal(body, []byte("hello")) {
		t.Fatalf("got host=%v body=%q", host, body)
	}
}

func TestMemorySendUnknownHost(t *testing.T) {
	net := NewNetwork()
	a := net.Join(config.HostA)
	defer a.Close()

	if err := a.Send(config.HostE, []byte("x")); err == nil {
		t.Fatalf("expected error sending to unjoined host")
	}
}

func TestMemoryCloseUnblocksRecv(t *testing.T) {
	net := NewNetwork()
	a := net.Join(config.HostA)

	done := make(chan error, 1)
	go func() {
		_, _, err := a.Recv()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	a.Close()

	select {
	case err := <-done:
		if err != ErrClosed {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Recv did not unblock after Close")
	}
}

func TestTCPRoundTrip(t *testing.T) {
	addrs := map[config.HostID]string{
		config.HostA: "127.0.0.1:0",
		config.HostB: "127.0.0.1:0",
	}
	lookup := func(h config.HostID) (string, bool) {
		a, ok := addrs[h]
		return a, ok
	}

	tb, err := NewTCP(config.HostB, "127.0.0.1:0", lookup)
	if err != nil {
		t.Fatalf("start B: %v", err)
	}
	defer tb.Close()
	addrs[config.HostB] = tb.ln.Addr().String()

	ta, err := NewTCP(config.HostA, "127.0.0.1:0", lookup)
	if err != nil {
		t.Fatalf("start A: %v", err)
	}
	defer ta.Close()
	addrs[config.HostA] = ta.ln.Addr().String()

	if err := ta.Send(config.HostB, []byte("ping")); err != nil {
		t.Fatalf("send: %v", err)
	}

	host, body, err := tb.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if host != config.HostA || !bytes.Equal(body, []byte("ping")) {
		t.Fatalf("got host=%v body=%q", host, body)
	}
}
