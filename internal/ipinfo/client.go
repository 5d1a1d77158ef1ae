// Package ipinfo предоставляет клиент для определения региона по IP-адресу.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client инкапсулирует HTTP-взаимодействие с сервисом геолокации.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Info описывает ответ сервиса геолокации по одному адресу.
type Info struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
}

// NewClient создаёт HTTP-клиент сервиса геолокации по указанному адресу.
// Пустой baseURL отключает клиент.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Lookup возвращает сведения о регионе для указанного IP-адреса.
func (c *Client) Lookup(ctx context.Context, ip string) (*Info, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("ipinfo client not configured")
	}

	url := fmt.Sprintf("%s/json/%s", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result Info
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.Status != "" && result.Status != "success" {
		return nil, fmt.Errorf("lookup failed for %s", ip)
	}

	return &result, nil
}
