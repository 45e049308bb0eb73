package client

import (
	"context"
	"net/url"
	"time"

	"agenda/pkg/timewindow"
)

type Slot struct {
	Window            timewindow.Window `json:"window"`
	EligibleStaffIDs  []string          `json:"eligible_staff_ids"`
	RemainingCapacity int               `json:"remaining_capacity"`
}

// SlotsResult mirrors the availability service response. Advisory is always
// true: only the commit-time check is authoritative.
type SlotsResult struct {
	BusinessID         string `json:"business_id"`
	ServiceID          string `json:"service_id"`
	Date               string `json:"date"`
	StaffID            string `json:"staff_id,omitempty"`
	GranularityMinutes int    `json:"granularity_minutes"`
	Advisory           bool   `json:"advisory"`
	Slots              []Slot `json:"slots"`
}

type CheckRequest struct {
	ServiceID        string    `json:"service_id"`
	StaffID          string    `json:"staff_id,omitempty"`
	CustomerID       string    `json:"customer_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty"`
}

type Conflict struct {
	Kind             string `json:"kind"`
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	RelatedBookingID string `json:"related_booking_id,omitempty"`
}

type CheckResult struct {
	Conflicts  []Conflict `json:"conflicts"`
	CanProceed bool       `json:"can_proceed"`
}

type AvailabilityClient struct {
	httpClient *HttpClient
}

func NewAvailabilityClient(baseURL string) *AvailabilityClient {
	return &AvailabilityClient{httpClient: NewHttpClient(baseURL)}
}

// Slots lists bookable slots of a service on date (YYYY-MM-DD, business time zone).
func (c *AvailabilityClient) Slots(ctx context.Context, businessID, serviceID, date, staffID string) (*SlotsResult, error) {
	q := url.Values{}
	q.Set("date", date)
	if staffID != "" {
		q.Set("staff_id", staffID)
	}
	path := "/api/v1/businesses/" + url.PathEscape(businessID) +
		"/services/" + url.PathEscape(serviceID) + "/slots?" + q.Encode()

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	var result SlotsResult
	if err := decodeData(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AvailabilityClient) Check(ctx context.Context, businessID string, req CheckRequest) (*CheckResult, error) {
	path := "/api/v1/businesses/" + url.PathEscape(businessID) + "/check"

	resp, err := c.httpClient.POST(ctx, path, req, nil)
	if err != nil {
		return nil, err
	}
	var result CheckResult
	if err := decodeData(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
