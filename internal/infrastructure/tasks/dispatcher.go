package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HTTPTaskDispatcher posts production tasks to the external task system over
// HTTP. The caller treats dispatch as best effort, so this client keeps a
// short request timeout instead of retrying.
type HTTPTaskDispatcher struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPTaskDispatcher creates a dispatcher from the tasks configuration
func NewHTTPTaskDispatcher(cfg config.TasksConfig, logger *zap.Logger) *HTTPTaskDispatcher {
	return &HTTPTaskDispatcher{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    cfg.MaxIdleConns,
				IdleConnTimeout: cfg.IdleConnTimeout,
			},
		},
		logger: logger,
	}
}

// productionTaskPayload is the wire format the task system accepts
type productionTaskPayload struct {
	OrderID     uuid.UUID            `json:"order_id"`
	OrderNumber string               `json:"order_number"`
	ClientName  string               `json:"client_name"`
	Items       []productionTaskItem `json:"items"`
	Notes       string               `json:"notes,omitempty"`
	QueuedAt    time.Time            `json:"queued_at"`
}

type productionTaskItem struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// DispatchProductionTask posts the order's production task
func (d *HTTPTaskDispatcher) DispatchProductionTask(ctx context.Context, order *workflow.Order) error {
	payload := productionTaskPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ClientName:  order.ClientName,
		Notes:       order.ProductionNotes,
		QueuedAt:    time.Now(),
		Items:       make([]productionTaskItem, len(order.Items)),
	}
	for i, item := range order.Items {
		payload.Items[i] = productionTaskItem{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode production task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build production task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to dispatch production task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("production task endpoint returned status %d", resp.StatusCode)
	}

	d.logger.Debug("production task dispatched",
		zap.String("order_number", order.OrderNumber),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
