package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sirupsen/logrus"
)

const (
	sendPath        = "/send/message"
	maxErrorBody    = 512
	defaultAttempts = 3
)

// HTTPError is returned for a non-2xx gateway response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("whatsapp gateway returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if repeated.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// GatewayClient talks to a WhatsApp HTTP gateway that exposes POST /send/message.
type GatewayClient struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
	attempts uint
	delay    time.Duration
	logger   *logrus.Entry
}

func NewGatewayClient(baseURL, user, password string, timeout time.Duration, logger *logrus.Entry) *GatewayClient {
	return &GatewayClient{
		baseURL:  baseURL,
		user:     user,
		password: password,
		http:     &http.Client{Timeout: timeout},
		attempts: defaultAttempts,
		delay:    time.Second,
		logger:   logger,
	}
}

// SendText posts one message. Transport errors, 429 and 5xx are retried a few times;
// other responses fail immediately so a bad number does not stall the cycle.
func (c *GatewayClient) SendText(ctx context.Context, phone string, text string) error {
	payload, err := json.Marshal(sendRequest{Phone: phone + "@s.whatsapp.net", Message: text})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	err = retry.Do(
		func() error {
			return c.post(ctx, payload)
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WithError(err).WithField("attempt", n+1).Warn("Retrying WhatsApp send")
		}),
	)
	if err != nil {
		return fmt.Errorf("send to %s: %w", maskPhone(phone), err)
	}
	return nil
}

func (c *GatewayClient) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	startTime := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("WhatsApp gateway responded")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	if httpErr.Temporary() {
		return httpErr
	}
	return retry.Unrecoverable(httpErr)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return "***" + phone[len(phone)-4:]
}
