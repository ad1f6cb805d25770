// Package relay drives one chat turn: it streams a reply from the model
// server and forwards it to the client as frames, grouping code blocks.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OllamaDesk/pkg/reassembler"
	svc "OllamaDesk/pkg/services"

	"go.uber.org/zap"
)

const (
	FrameStream = "stream"
	FrameError  = "error"
	FrameEnd    = "end"
)

// Frame is what the client receives on the duplex channel.
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Request is what the client sends on the duplex channel.
type Request struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Sender writes one frame to the client.
type Sender interface {
	Send(Frame) error
}

// Streamer opens a streamed chat completion.
type Streamer interface {
	StreamChat(ctx context.Context, req svc.ChatRequest, onChunk func(svc.ChatChunk) error) error
}

type Options struct {
	DefaultModel string
	Temperature  float64
	NumPredict   int
}

// SendError wraps a failure to write to the client. The connection is unusable after it.
type SendError struct{ Err error }

func (e *SendError) Error() string { return fmt.Sprintf("send frame: %v", e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

type Relay struct {
	streamer Streamer
	opts     Options
	log      *zap.Logger
}

func New(streamer Streamer, opts Options, log *zap.Logger) *Relay {
	return &Relay{streamer: streamer, opts: opts, log: log}
}

// ChatRequest builds the model server request for one inbound message.
func (r *Relay) ChatRequest(req Request) svc.ChatRequest {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = r.opts.DefaultModel
	}
	return svc.ChatRequest{
		Model:    model,
		Messages: []svc.ChatMessage{{Role: "user", Content: req.Content}},
		Stream:   true,
		Options:  &svc.ChatOptions{Temperature: r.opts.Temperature, NumPredict: r.opts.NumPredict},
	}
}

// Serve runs one turn. Model server failures are reported to the client as
// error frames and Serve returns nil; only a *SendError is returned.
func (r *Relay) Serve(ctx context.Context, req Request, out Sender) error {
	chatReq := r.ChatRequest(req)
	log := r.log.With(zap.String("model", chatReq.Model))
	log.Info("relaying message", zap.Int("content_len", len(req.Content)))

	send := func(f Frame) error {
		if err := out.Send(f); err != nil {
			return &SendError{Err: err}
		}
		return nil
	}

	ra := reassembler.New()
	finish := func() error {
		if s, ok := ra.Flush(); ok {
			if err := send(Frame{Type: FrameStream, Content: s}); err != nil {
				return err
			}
		}
		return send(Frame{Type: FrameEnd})
	}

	done := false
	err := r.streamer.StreamChat(ctx, chatReq, func(chunk svc.ChatChunk) error {
		if content := chunk.Content(); content != "" {
			if s, ok := ra.Push(content); ok {
				if err := send(Frame{Type: FrameStream, Content: s}); err != nil {
					return err
				}
			}
		}
		if chunk.Done {
			done = true
			return finish()
		}
		return nil
	})

	var sendErr *SendError
	var statusErr *svc.StatusError
	var upstreamErr *svc.UpstreamError
	switch {
	case err == nil:
		if !done {
			// stream closed without a done line
			log.Warn("model stream ended without completion signal")
			return finish()
		}
		log.Debug("turn complete")
		return nil
	case errors.As(err, &sendErr):
		return err
	case errors.As(err, &statusErr):
		log.Warn("model server returned error status", zap.Int("status", statusErr.StatusCode))
		return send(Frame{Type: FrameError, Content: fmt.Sprintf("Ollama API error: %d", statusErr.StatusCode)})
	case errors.As(err, &upstreamErr):
		log.Warn("model server reported error", zap.String("error", upstreamErr.Message))
		return send(Frame{Type: FrameError, Content: upstreamErr.Message})
	default:
		log.Error("model stream failed", zap.Error(err))
		return send(Frame{Type: FrameError, Content: err.Error()})
	}
}
