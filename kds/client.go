package kds

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

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

// APIClient talks to the order API on behalf of a kitchen screen.
type APIClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		// Per-request deadlines come from the caller's context.
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Kind    utils.ErrorKind `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func (c *APIClient) FetchOrders(ctx context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error) {
	endpoint := fmt.Sprintf("%s/restaurants/%s/orders", c.BaseURL, url.PathEscape(restaurantID))
	if len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, status := range statuses {
			names = append(names, string(status))
		}
		endpoint += "?status=" + url.QueryEscape(strings.Join(names, ","))
	}

	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *APIClient) UpdateStatus(ctx context.Context, orderID string, req services.StatusUpdateRequest) (*models.Order, error) {
	endpoint := fmt.Sprintf("%s/orders/%s/status", c.BaseURL, url.PathEscape(orderID))

	var order models.Order
	if err := c.do(ctx, http.MethodPatch, endpoint, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *APIClient) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return utils.Internal(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return utils.Internal(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return utils.TransientIO(err, "%s %s", method, endpoint)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if kind := utils.KindFromStatus(resp.StatusCode); kind == utils.KindTransientIO {
			return utils.TransientIO(err, "server returned %d", resp.StatusCode)
		}
		return utils.Internal(err, "decode response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// kind dari envelope lebih tepat daripada status code
		kind := env.Kind
		if !kind.Known() {
			kind = utils.KindFromStatus(resp.StatusCode)
		}
		message := env.Message
		if message == "" {
			message = resp.Status
		}
		return &utils.AppError{Kind: kind, Message: message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return utils.Internal(err, "decode response data")
		}
	}
	return nil
}
