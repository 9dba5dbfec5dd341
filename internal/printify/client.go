// Package printify реализует минимальный клиент Printify API,
// используемый для опроса трекинга заказов печати по требованию.
package printify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable возвращается, когда Printify недоступен.
var ErrUnavailable = errors.New("printify unavailable")

// Client клиент Printify API.
type Client struct {
	apiKey     string
	shopID     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Printify.
func NewClient(apiKey, shopID string) *Client {
	return &Client{
		apiKey:     apiKey,
		shopID:     shopID,
		apiURL:     "https://api.printify.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Order заказ в Printify. Из полного ответа API используются только
// статус и отгрузки.
type Order struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Shipments []struct {
		Carrier string `json:"carrier"`
		Number  string `json:"number"`
		URL     string `json:"url"`
	} `json:"shipments"`
}

// GetOrder читает заказ по внешнему идентификатору.
func (c *Client) GetOrder(orderID string) (*Order, error) {
	reqURL := fmt.Sprintf("%s/shops/%s/orders/%s.json", c.apiURL, c.shopID, url.PathEscape(orderID))
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode printify response: %w", err)
	}
	return &order, nil
}
