// Package greenapi предоставляет клиент шлюза WhatsApp-сообщений
// (Green API). Шлюз используется только в режиме fire-and-forget:
// сбой отправки логируется вызывающей стороной и не считается сбоем
// бизнес-операции.
package greenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client клиент шлюза сообщений.
type Client struct {
	baseURL    string
	instance   string
	token      string
	httpClient *http.Client
}

// SendResult результат отправки сообщения.
type SendResult struct {
	Success   bool
	MessageID string
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	IDMessage string `json:"idMessage"`
}

// NewClient создаёт клиент шлюза.
func NewClient(baseURL, instance, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		instance:   instance,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendText отправляет текстовое сообщение на номер телефона.
// Номер должен быть заранее нормализован к международному виду
// (internal/lib/phone) — это предусловие вызова, не забота шлюза.
func (c *Client) SendText(ctx context.Context, phoneNumber, message string) (*SendResult, error) {
	const op = "greenapi.SendText"

	url := fmt.Sprintf("%s/waInstance%s/sendMessage/%s", c.baseURL, c.instance, c.token)
	body := sendMessageRequest{
		ChatID:  phoneNumber + "@c.us",
		Message: message,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Шлюз подтверждает приём сообщением idMessage.
	return &SendResult{
		Success:   result.IDMessage != "",
		MessageID: result.IDMessage,
	}, nil
}
