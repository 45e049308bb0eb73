package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"agenda/pkg/config"
	apperrors "agenda/pkg/errors"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 10, 0, false},
		{"explicit", "?limit=5&offset=20", 5, 20, false},
		{"limit capped", "?limit=100000", config.DefaultPaginationLimit, 0, false},
		{"negative offset clamped", "?offset=-3", 10, 0, false},
		{"alphabetic limit", "?limit=abc", 0, 0, true},
		{"alphabetic offset", "?offset=xyz", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/search"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(req)

			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want %d/%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestRequiredQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/slots?date=%202026-03-02%20", nil)
	if v, err := RequiredQuery(req, "date"); err != nil || v != "2026-03-02" {
		t.Errorf("RequiredQuery() = %q, %v", v, err)
	}
	if _, err := RequiredQuery(req, "staff_id"); err == nil {
		t.Errorf("expected error for missing parameter")
	}
}

func TestOptionalTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search?from=2026-03-02T09:00:00Z&to=yesterday", nil)

	from, err := OptionalTime(req, "from")
	if err != nil || from == nil || from.Hour() != 9 {
		t.Errorf("OptionalTime(from) = %v, %v", from, err)
	}
	if _, err := OptionalTime(req, "to"); err == nil {
		t.Errorf("expected error for malformed time")
	}
	if missing, err := OptionalTime(req, "until"); err != nil || missing != nil {
		t.Errorf("missing parameter should be nil, got %v, %v", missing, err)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.NotFound("Booking"), http.StatusNotFound, apperrors.CodeNotFound},
		{"rejected", apperrors.Rejected("booking rejected", []string{"capacity-exceeded"}), http.StatusConflict, apperrors.CodeBookingRejected},
		{"rate limited", apperrors.RateLimited("slow down"), http.StatusTooManyRequests, apperrors.CodeRateLimited},
		{"plain", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("WriteError() = %v", err)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
		})
	}
}
