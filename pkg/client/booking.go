package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"agenda/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

// Create commits a booking. A rejected booking comes back as an *APIError
// whose Details["conflicts"] lists the findings.
func (c *BookingClient) Create(ctx context.Context, booking *model.Booking, idempotencyKey string) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings", booking, map[string]string{
		HeaderIdempotencyKey: idempotencyKey,
		HeaderCustomerID:     booking.CustomerID,
	})
	if err != nil {
		return nil, err
	}
	var created model.Booking
	if err := decodeData(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) Search(ctx context.Context, businessID string, from, to *time.Time, limit int, offset int64) ([]*model.Booking, *Metadata, error) {
	q := url.Values{}
	q.Set("business_id", businessID)
	if from != nil {
		q.Set("from", from.Format(time.RFC3339))
	}
	if to != nil {
		q.Set("to", to.Format(time.RFC3339))
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/search?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, toAPIError(resp)
	}

	var page struct {
		Data []*model.Booking `json:"data"`
		Metadata
	}
	if err := resp.DecodeJSON(&page); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated response: %s: %w", resp.ToString(), err)
	}
	meta := page.Metadata
	return page.Data, &meta, nil
}

func (c *BookingClient) Reschedule(ctx context.Context, id string, change *model.BookingReschedule) (*model.Booking, error) {
	resp, err := c.httpClient.PATCH(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/reschedule", change, nil)
	if err != nil {
		return nil, err
	}
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/status",
		model.BookingStatusUpdate{Status: status}, nil)
	if err != nil {
		return nil, err
	}
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
