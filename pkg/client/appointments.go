package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"clinicflow/pkg/model"

	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

// AppointmentsClient calls the appointments API. Mutating calls carry an
// idempotency key so a retried request is not applied twice.
type AppointmentsClient struct {
	httpClient *HttpClient
}

func NewAppointmentsClient(baseUrl string, timeout time.Duration) *AppointmentsClient {
	return &AppointmentsClient{
		httpClient: NewHttpClient(baseUrl, timeout),
	}
}

func (c *AppointmentsClient) Book(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.Post(ctx, "/api/v1/appointments", body, idempotent(""))
}

func (c *AppointmentsClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.Get(ctx, appointmentPath(id))
}

func (c *AppointmentsClient) Move(ctx context.Context, id string, req model.MoveRequest) (*Response, error) {
	return c.httpClient.Patch(ctx, appointmentPath(id)+"/move", req)
}

func (c *AppointmentsClient) UpdateStatus(ctx context.Context, id string, status model.Status) (*Response, error) {
	return c.httpClient.Patch(ctx, appointmentPath(id)+"/status", model.StatusChange{Status: status})
}

func (c *AppointmentsClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.Delete(ctx, appointmentPath(id))
}

func (c *AppointmentsClient) DaySchedule(ctx context.Context, date, providerID string) (*Response, error) {
	return c.httpClient.Get(ctx, "/api/v1/schedule/slots?"+dayQuery(date, providerID).Encode())
}

func (c *AppointmentsClient) Conflicts(ctx context.Context, date, providerID string) (*Response, error) {
	return c.httpClient.Get(ctx, "/api/v1/schedule/conflicts?"+dayQuery(date, providerID).Encode())
}

// Resolve proposes moves, or applies them when apply is set. An empty key is
// replaced by a fresh one.
func (c *AppointmentsClient) Resolve(ctx context.Context, date, providerID string, apply bool, key string) (*Response, error) {
	q := dayQuery(date, providerID)
	q.Set("apply", strconv.FormatBool(apply))
	return c.httpClient.Post(ctx, "/api/v1/schedule/resolve?"+q.Encode(), struct{}{}, idempotent(key))
}

func (c *AppointmentsClient) BulkStatus(ctx context.Context, ids []string, status model.Status, key string) (*Response, error) {
	return c.httpClient.Post(ctx, "/api/v1/appointments/bulk/status", model.BulkStatusRequest{IDs: ids, Status: status}, idempotent(key))
}

func (c *AppointmentsClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}

func appointmentPath(id string) string {
	return "/api/v1/appointments/id/" + url.PathEscape(id)
}

func idempotent(key string) map[string]string {
	if key == "" {
		key = uuid.NewString()
	}
	return map[string]string{idempotencyHeader: key}
}

func dayQuery(date, providerID string) url.Values {
	q := url.Values{}
	q.Set("date", date)
	if providerID != "" {
		q.Set("provider_id", providerID)
	}
	return q
}

// DecodeData unwraps the {"data": ...} envelope written by the API.
func DecodeData[T any](resp *Response) (T, error) {
	var out T
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return out, fmt.Errorf("could not decode response wrapper: %w", err)
	}
	if err := json.Unmarshal(wrapper.Data, &out); err != nil {
		return out, fmt.Errorf("could not decode response data: %w", err)
	}
	return out, nil
}
