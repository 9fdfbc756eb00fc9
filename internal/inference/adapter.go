// Package inference calls OpenAI-compatible completion servers.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/metrics"
	"github.com/xaenox/cladari/internal/models"
)

// ErrUnavailable marks a server that answered, but not usefully: a
// non-success status, a malformed body or an empty completion.
var ErrUnavailable = errors.New("model unavailable")

// Request is one prompt, in both completion and chat form.
type Request struct {
	Prompt      string
	Messages    []models.Message
	Temperature float64
}

// Completer submits a request to one endpoint and returns its text.
type Completer interface {
	Complete(ctx context.Context, ep models.Endpoint, req Request) (string, error)
}

type Adapter struct {
	clients map[string]*openai.Client
	logger  *zap.Logger
}

// NewAdapter builds one client per endpoint. Local servers usually ignore apiKey.
func NewAdapter(endpoints []models.Endpoint, apiKey string, logger *zap.Logger) *Adapter {
	clients := make(map[string]*openai.Client, len(endpoints))
	for _, ep := range endpoints {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = strings.TrimRight(ep.BaseURL, "/") + "/v1"
		if ep.Timeout > 0 {
			cfg.HTTPClient = &http.Client{Timeout: ep.Timeout}
		}
		clients[ep.Name] = openai.NewClientWithConfig(cfg)
	}
	return &Adapter{
		clients: clients,
		logger:  logger,
	}
}

// Complete makes exactly one call, bounded by ep.Timeout.
func (a *Adapter) Complete(ctx context.Context, ep models.Endpoint, req Request) (string, error) {
	client, ok := a.clients[ep.Name]
	if !ok {
		return "", fmt.Errorf("unknown endpoint %q", ep.Name)
	}

	if ep.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ep.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		text string
		err  error
	)
	switch ep.API {
	case models.APIChat:
		text, err = a.chat(ctx, client, ep, req)
	default:
		text, err = a.completion(ctx, client, ep, req)
	}
	metrics.InferenceLatency.WithLabelValues(ep.Name).Observe(time.Since(start).Seconds())

	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = fmt.Errorf("%w: empty response", ErrUnavailable)
		}
	}
	if err != nil {
		err = classifyError(err)
		status := "error"
		if errors.Is(err, ErrUnavailable) {
			status = "unavailable"
		}
		metrics.InferenceCalls.WithLabelValues(ep.Name, status).Inc()
		a.logger.Debug("Inference call failed",
			zap.Error(err),
			zap.String("endpoint", ep.Name),
			zap.String("model", ep.Model),
			zap.Duration("elapsed", time.Since(start)))
		return "", err
	}

	metrics.InferenceCalls.WithLabelValues(ep.Name, "success").Inc()
	if ep.StripBeliefs {
		text = StripBeliefs(text)
	}
	return text, nil
}

func (a *Adapter) completion(ctx context.Context, client *openai.Client, ep models.Endpoint, req Request) (string, error) {
	resp, err := client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       ep.Model,
		Prompt:      req.Prompt,
		MaxTokens:   ep.MaxTokens,
		Temperature: float32(req.Temperature),
		Stop:        ep.Stop,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}
	return resp.Choices[0].Text, nil
}

func (a *Adapter) chat(ctx context.Context, client *openai.Client, ep models.Endpoint, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       ep.Model,
		Messages:    messages,
		MaxTokens:   ep.MaxTokens,
		Temperature: float32(req.Temperature),
		Stop:        ep.Stop,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyError folds status and decoding failures into ErrUnavailable.
// Transport errors and timeouts are returned as they are.
func classifyError(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d", ErrUnavailable, reqErr.HTTPStatusCode)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: malformed body: %v", ErrUnavailable, err)
	}
	return err
}
