// Package recordstore предоставляет клиент внешнего Record Store —
// табличного HTTP-API, единственного долговечного владельца
// данных системы. Клиент поддерживает list/get/create/update по таблицам;
// мультизаписных транзакций хранилище не предлагает, атомарность
// гарантируется только на уровне одной записи (PATCH).
//
// Чтения выполняются через retryablehttp и могут повторяться при сетевых
// сбоях; мутации (POST/PATCH) не повторяются автоматически — их повтор
// инициирует оператор.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Record одна запись таблицы: непрозрачный ID и слаботипизированная
// карта полей. Значения могут приходить числом, строкой или массивом
// (link-поля) — разбор выполняют конвертеры в internal/models.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ErrNotFound запись или таблица не найдены в хранилище.
var ErrNotFound = errors.New("record not found")

// StoreError ошибка уровня API хранилища (HTTP >= 400).
type StoreError struct {
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store: status %d: %s", e.Status, e.Message)
}

// ListOptions параметры выборки списка записей.
type ListOptions struct {
	// Filter формула-предикат над полями записи, см. formula.go.
	Filter string
	// SortField и SortDesc задают сортировку на стороне хранилища.
	SortField string
	SortDesc  bool
	// MaxRecords ограничивает размер выборки; 0 — без ограничения.
	MaxRecords int
}

// Client клиент Record Store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// New создаёт клиент хранилища. Повторы применяются только к GET-запросам:
// мутации не идемпотентны с точки зрения бизнес-процесса и не
// повторяются автоматически.
func New(baseURL, apiKey string, timeout time.Duration, retries int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.Request != nil && resp.Request.Method != http.MethodGet {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: rc,
	}
}

// List возвращает записи таблицы, при необходимости отфильтрованные
// и отсортированные на стороне хранилища.
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	const op = "recordstore.List"

	q := url.Values{}
	if opts.Filter != "" {
		q.Set("filterByFormula", opts.Filter)
	}
	if opts.SortField != "" {
		q.Set("sort[0][field]", opts.SortField)
		dir := "asc"
		if opts.SortDesc {
			dir = "desc"
		}
		q.Set("sort[0][direction]", dir)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", fmt.Sprint(opts.MaxRecords))
	}

	endpoint := c.baseURL + "/" + url.PathEscape(table)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var page struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page.Records, nil
}

// Get возвращает одну запись по ID.
func (c *Client) Get(ctx context.Context, table, id string) (*Record, error) {
	const op = "recordstore.Get"
	endpoint := c.baseURL + "/" + url.PathEscape(table) + "/" + url.PathEscape(id)

	var rec Record
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// Create создаёт запись и возвращает её вместе с присвоенным ID.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	const op = "recordstore.Create"
	endpoint := c.baseURL + "/" + url.PathEscape(table)

	var rec Record
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"fields": fields}, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// Update частично обновляет запись: непереданные поля сохраняются.
func (c *Client) Update(ctx context.Context, table, id string, fields map[string]any) (*Record, error) {
	const op = "recordstore.Update"
	endpoint := c.baseURL + "/" + url.PathEscape(table) + "/" + url.PathEscape(id)

	var rec Record
	if err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"fields": fields}, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return &StoreError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
