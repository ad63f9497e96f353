package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingDrainer struct {
	calls int
}

func (d *countingDrainer) Wait(ctx context.Context) error {
	d.calls++
	return nil
}

func TestShutdownDrainsWhenServerShutdownTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	release := make(chan struct{})
	entered := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})}
	go srv.Serve(ln)
	defer close(release)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}

	pending := &countingDrainer{}
	err = shutdown(srv, pending, 50*time.Millisecond, time.Second, zap.NewNop().Sugar())
	if err == nil {
		t.Fatal("expected shutdown to time out with a request in flight")
	}
	if pending.calls != 1 {
		t.Errorf("drain calls = %d, want 1", pending.calls)
	}
}

func TestShutdownDrainsOnCleanStop(t *testing.T) {
	srv := &http.Server{}
	pending := &countingDrainer{}
	if err := shutdown(srv, pending, time.Second, time.Second, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if pending.calls != 1 {
		t.Errorf("drain calls = %d, want 1", pending.calls)
	}
}
