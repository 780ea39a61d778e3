package sse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// Read the connect comment first so we know the subscription is live.
	buf := make([]byte, 256)
	if _, err := resp.Body.Read(buf); err != nil {
		t.Fatal(err)
	}

	b.Publish(Event{Type: "rebuild", Data: map[string]int{"scenes": 2}})

	deadline := time.After(3 * time.Second)
	var got strings.Builder
	for !strings.Contains(got.String(), "event: rebuild") {
		select {
		case <-deadline:
			t.Fatalf("rebuild event not received, got %q", got.String())
		default:
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			got.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if !strings.Contains(got.String(), `"scenes":2`) {
		t.Errorf("payload missing: %q", got.String())
	}
}

func TestBroker_CloseEndsStreams(t *testing.T) {
	b := NewBroker()

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.WaitClosed(ctx); err != nil {
		t.Fatalf("broker did not close: %v", err)
	}

	// Stream should end rather than hang.
	done := make(chan struct{})
	go func() {
		_, _ = io.ReadAll(resp.Body)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not terminate after Close")
	}
}

func TestBroker_CloseTwice(t *testing.T) {
	b := NewBroker()
	b.Close()
	b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.WaitClosed(ctx); err != nil {
		t.Fatalf("broker not closed: %v", err)
	}
}

func TestBroker_PublishAfterCloseDoesNotBlock(t *testing.T) {
	b := NewBroker()
	b.Close()

	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: "rebuild"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Close")
	}
}
