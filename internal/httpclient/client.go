package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	baseDelay = 1 * time.Second
	maxDelay  = 30 * time.Second
)

// ErrStatus indica uma resposta HTTP com status inesperado
var ErrStatus = errors.New("status HTTP inesperado")

// Client faz requisições GET com timeout por tentativa e número limitado de novas tentativas
type Client struct {
	http      *http.Client
	retries   int
	baseDelay time.Duration
	maxDelay  time.Duration
	userAgent string
	language  string
}

// Option altera a configuração do Client
type Option func(*Client)

// WithBackoff define o atraso base e o máximo entre tentativas
func WithBackoff(base, limit time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = limit
	}
}

// WithAcceptLanguage define o cabeçalho Accept-Language enviado às lojas
func WithAcceptLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithHTTPClient substitui o http.Client usado
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New cria um novo Client
func New(timeout time.Duration, retries int, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retries < 0 {
		retries = 0
	}

	c := &Client{
		http:      &http.Client{Timeout: timeout},
		retries:   retries,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get busca a URL e retorna o corpo da resposta.
// Erros de rede, 429 e 5xx são repetidos até o limite de tentativas.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(Backoff(c.baseDelay, c.maxDelay, attempt-1)):
			}
		}

		body, retry, err := c.do(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url, accept string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("criar requisição: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("executar requisição: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return nil, retry, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("ler resposta: %w", err)
	}

	return body, false, nil
}

// Backoff retorna base * 2^attempt, sem passar de limit
func Backoff(base, limit time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		return base
	}
	if attempt > 30 {
		return limit
	}

	d := base * time.Duration(1<<attempt)
	if d > limit || d <= 0 {
		return limit
	}
	return d
}
