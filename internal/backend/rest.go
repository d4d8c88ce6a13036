package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker/v2"
)

// restClient issues JSON requests with fiber's fasthttp agent behind a circuit breaker.
type restClient struct {
	base    string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newRestClient(name, base string, timeout time.Duration) *restClient {
	return &restClient{base: base, timeout: timeout, breaker: newBreaker[[]byte](name)}
}

type call struct {
	op     string
	method string
	path   string
	body   any
	sid    string
}

func (c *restClient) do(ctx context.Context, rc call, out any) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: rc.op, Err: err}
	}
	timeout := effectiveTimeout(ctx, c.timeout)

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		a := agent(rc.method, c.base+rc.path)
		a.Timeout(timeout)
		a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
		if rc.body != nil {
			a.JSON(rc.body)
		}
		if rc.sid != "" {
			a.Cookie(sessionCookie, rc.sid)
		}
		code, body, errs := a.Bytes()
		if len(errs) > 0 {
			return nil, &TransportError{Op: rc.op, Err: errors.Join(errs...)}
		}
		if code == http.StatusNotFound {
			return nil, notFound(rc.op)
		}
		if code < 200 || code > 299 {
			return nil, &TransportError{Op: rc.op, Status: code, Err: fmt.Errorf("unexpected response %q", snippet(body))}
		}
		// fasthttp reuses the buffer once the agent is released.
		return append([]byte(nil), body...), nil
	})
	if err != nil {
		return breakerError(rc.op, err)
	}
	if out == nil || len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: rc.op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func agent(method, url string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return fiber.Post(url)
	case fiber.MethodPut:
		return fiber.Put(url)
	case fiber.MethodDelete:
		return fiber.Delete(url)
	default:
		return fiber.Get(url)
	}
}

func snippet(b []byte) string {
	const max = 120
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
