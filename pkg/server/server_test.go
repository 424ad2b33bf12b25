package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestServer_RunAndContextCancel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := New(Config{ListenAddr: "127.0.0.1:0", ShutdownTimeout: time.Second}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_ShutdownTimeoutDefault(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	srv := New(Config{ListenAddr: "127.0.0.1:0"}, handler)

	if err := srv.shutdown(); err != nil {
		t.Fatalf("shutdown on unstarted server: %v", err)
	}
}
