package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a thin Binance spot REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// tickerPrice is the /api/v3/ticker/price response
type tickerPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price,string"`
}

// ticker24hr is the /api/v3/ticker/24hr response (fields we consume)
type ticker24hr struct {
	Symbol             string  `json:"symbol"`
	PriceChangePercent float64 `json:"priceChangePercent,string"`
	LastPrice          float64 `json:"lastPrice,string"`
}

// GetPrice fetches the current spot price for a symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var tp tickerPrice
	if err := c.getJSON(ctx, "/api/v3/ticker/price", params, &tp); err != nil {
		return 0, err
	}
	if tp.Price <= 0 {
		return 0, fmt.Errorf("invalid price for %s", symbol)
	}
	return tp.Price, nil
}

// Get24hChange fetches the 24h price change percentage for a symbol.
func (c *Client) Get24hChange(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var t ticker24hr
	if err := c.getJSON(ctx, "/api/v3/ticker/24hr", params, &t); err != nil {
		return 0, err
	}
	return t.PriceChangePercent, nil
}

// GetKlines fetches candlestick data, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var rawKlines [][]interface{}
	if err := c.getJSON(ctx, "/api/v3/klines", params, &rawKlines); err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(rawKlines))
	for _, raw := range rawKlines {
		if len(raw) < 6 {
			return nil, fmt.Errorf("malformed kline entry")
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			return nil, fmt.Errorf("malformed kline open time")
		}
		candles = append(candles, Candle{
			Timestamp: int64(openTime),
			Open:      parseFloat(raw[1]),
			High:      parseFloat(raw[2]),
			Low:       parseFloat(raw[3]),
			Close:     parseFloat(raw[4]),
			Volume:    parseFloat(raw[5]),
		})
	}

	return candles, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s", string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	return nil
}

func parseFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case float64:
		return val
	default:
		return 0
	}
}
