package services

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *ChatOptions  `json:"options,omitempty"`
}

// ChatChunk is one line of a streamed /api/chat reply, or the whole
// reply when streaming is off.
type ChatChunk struct {
	Model   string       `json:"model"`
	Message *ChatMessage `json:"message,omitempty"`
	Done    bool         `json:"done"`
	Error   string       `json:"error,omitempty"`
}

// Content returns the message text, or "" when the chunk has none.
func (c ChatChunk) Content() string {
	if c.Message == nil {
		return ""
	}
	return c.Message.Content
}

type ModelTag struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
}

type tagsResponse struct {
	Models []ModelTag `json:"models"`
}

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	stream *resty.Client
	plain  *resty.Client
	log    *zap.Logger
}

// NewOllamaClient builds a client. streamTimeout bounds a whole streamed
// reply; 0 disables it. Per-call limits for non-streaming calls come from ctx.
func NewOllamaClient(baseURL string, streamTimeout time.Duration, log *zap.Logger) *OllamaClient {
	newClient := func(timeout time.Duration) *resty.Client {
		return resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	}
	return &OllamaClient{
		stream: newClient(streamTimeout),
		plain:  newClient(0),
		log:    log.Named("ollama"),
	}
}

// StreamChat posts req with streaming on and calls onChunk for every decoded
// line until the server reports done. Lines that are not JSON are skipped.
// An error from onChunk stops the read and is returned unchanged.
func (c *OllamaClient) StreamChat(ctx context.Context, req ChatRequest, onChunk func(ChatChunk) error) error {
	req.Stream = true
	c.log.Debug("stream chat", zap.String("model", req.Model), zap.Int("messages", len(req.Messages)))

	resp, err := c.stream.R().
		SetContext(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/api/chat")
	if err != nil {
		return &TransportError{Op: "post /api/chat", Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	c.log.Debug("ollama responded", zap.Int("status", resp.StatusCode()))
	if resp.StatusCode() != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(body, 4096))
		return &StatusError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(b))}
	}

	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk ChatChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			c.log.Debug("skipping malformed line", zap.Error(&DecodeError{Line: line, Err: err}))
			continue
		}
		if chunk.Error != "" {
			return &UpstreamError{Message: chunk.Error}
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return &TransportError{Op: "read /api/chat stream", Err: err}
	}
	return nil
}

// Chat runs one non-streaming completion and returns the reply text.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	req.Stream = false
	resp, err := c.plain.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/chat")
	if err != nil {
		return "", &TransportError{Op: "post /api/chat", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}

	var chunk ChatChunk
	if err := json.Unmarshal(resp.Body(), &chunk); err != nil {
		return "", &DecodeError{Line: resp.String(), Err: err}
	}
	if chunk.Error != "" {
		return "", &UpstreamError{Message: chunk.Error}
	}
	return chunk.Content(), nil
}

// ListTags returns the locally installed models.
func (c *OllamaClient) ListTags(ctx context.Context) ([]ModelTag, error) {
	resp, err := c.plain.R().
		SetContext(ctx).
		Get("/api/tags")
	if err != nil {
		return nil, &TransportError{Op: "get /api/tags", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	var out tagsResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &DecodeError{Line: resp.String(), Err: err}
	}
	return out.Models, nil
}
