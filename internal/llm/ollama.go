package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// OllamaClient completes prompts against a local Ollama server.
type OllamaClient struct {
	llm     *ollama.LLM
	timeout time.Duration
	limiter *rate.Limiter
}

// NewOllamaClient connects to the Ollama server at host. A non-zero rps
// installs a rate limiter in front of the backend so a burst of sessions
// cannot queue unbounded generations behind one small model.
func NewOllamaClient(host, model string, timeout time.Duration, rps float64) (*OllamaClient, error) {
	backend, err := ollama.New(
		ollama.WithServerURL(host),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	c := &OllamaClient{
		llm:     backend,
		timeout: timeout,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c, nil
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	callOpts := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}

	reply, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOpts...)
	if err != nil {
		return "", classify(err)
	}
	return reply, nil
}

// classify maps transport-level failures to ErrBackendUnavailable and
// everything else the backend said to ErrBackendError.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendError, err)
}
