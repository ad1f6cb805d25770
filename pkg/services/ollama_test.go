package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeOllama serves /api/chat and /api/tags with canned answers.
func fakeOllama(t *testing.T, chat http.HandlerFunc, tags http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if chat != nil {
		mux.HandleFunc("/api/chat", chat)
	}
	if tags != nil {
		mux.HandleFunc("/api/tags", tags)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func ndjson(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
}

func TestStreamChatDeliversChunksUntilDone(t *testing.T) {
	var got ChatRequest
	srv := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		ndjson(
			`{"message":{"role":"assistant","content":"Hel"},"done":false}`,
			`not json at all`,
			``,
			`{"message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true}`,
			`{"message":{"role":"assistant","content":"ignored"},"done":false}`,
		)(w, r)
	}, nil)

	c := NewOllamaClient(srv.URL, 5*time.Second, zap.NewNop())
	var contents []string
	var sawDone bool
	err := c.StreamChat(context.Background(), ChatRequest{
		Model:    "llama2",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
		Options:  &ChatOptions{Temperature: 0.7, NumPredict: 100},
	}, func(ch ChatChunk) error {
		if ch.Content() != "" {
			contents = append(contents, ch.Content())
		}
		sawDone = sawDone || ch.Done
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Stream || got.Model != "llama2" || got.Options == nil || got.Options.NumPredict != 100 {
		t.Fatalf("unexpected request body %+v", got)
	}
	if len(contents) != 2 || contents[0] != "Hel" || contents[1] != "lo" || !sawDone {
		t.Fatalf("unexpected chunks %v done=%v", contents, sawDone)
	}
}

func TestStreamChatStatusError(t *testing.T) {
	srv := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}, nil)
	c := NewOllamaClient(srv.URL, time.Second, zap.NewNop())
	err := c.StreamChat(context.Background(), ChatRequest{Model: "nope"}, func(ChatChunk) error {
		t.Fatalf("no chunk expected")
		return nil
	})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func TestStreamChatUpstreamError(t *testing.T) {
	srv := fakeOllama(t, ndjson(`{"error":"llama runner crashed"}`), nil)
	c := NewOllamaClient(srv.URL, time.Second, zap.NewNop())
	err := c.StreamChat(context.Background(), ChatRequest{Model: "m"}, func(ChatChunk) error { return nil })
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Message != "llama runner crashed" {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestStreamChatCallbackErrorStops(t *testing.T) {
	srv := fakeOllama(t, ndjson(
		`{"message":{"content":"a"}}`,
		`{"message":{"content":"b"}}`,
	), nil)
	c := NewOllamaClient(srv.URL, time.Second, zap.NewNop())
	stop := errors.New("client gone")
	calls := 0
	err := c.StreamChat(context.Background(), ChatRequest{Model: "m"}, func(ChatChunk) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected callback error after one call, got %v calls=%d", err, calls)
	}
}

func TestStreamChatTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOllamaClient(url, time.Second, zap.NewNop())
	err := c.StreamChat(context.Background(), ChatRequest{Model: "m"}, func(ChatChunk) error { return nil })
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !te.ConnectionRefused() {
		t.Fatalf("expected connection refused, got %v", te)
	}
}

func TestChatNonStreaming(t *testing.T) {
	var got ChatRequest
	srv := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama2","message":{"role":"assistant","content":"  Debug memory leak \n"},"done":true}`)
	}, nil)
	c := NewOllamaClient(srv.URL, time.Second, zap.NewNop())
	reply, err := c.Chat(context.Background(), ChatRequest{Model: "llama2", Stream: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Stream {
		t.Fatalf("Chat must force stream=false")
	}
	if reply != "  Debug memory leak \n" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestChatMalformedBody(t *testing.T) {
	srv := fakeOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":`)
	}, nil)
	c := NewOllamaClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Chat(context.Background(), ChatRequest{Model: "llama2"})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestListTags(t *testing.T) {
	srv := fakeOllama(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"models":[{"name":"llama2:latest","modified_at":"2024-01-01T00:00:00Z","size":1},{"name":"mistral"}]}`)
	})
	c := NewOllamaClient(srv.URL+"/", time.Second, zap.NewNop())
	tags, err := c.ListTags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "llama2:latest" || tags[0].ModifiedAt == "" || tags[1].ModifiedAt != "" {
		t.Fatalf("unexpected tags %+v", tags)
	}
}
