package sanitizer

import (
	"reflect"
	"testing"

	"agenda/pkg/model"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"  Corner   Salon ", "Corner Salon"},
		{"a\t\nb", "a b"},
		{"Already clean", "Already clean"},
	}
	for _, tt := range tests {
		if got := TrimAndNormalize(tt.in); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := TrimAndNormalize(tt.want); again != tt.want {
			t.Errorf("not idempotent for %q: %q", tt.want, again)
		}
	}
}

func TestNormalizeNotes(t *testing.T) {
	got := NormalizeNotes("  first line   \r\nsecond line\t\n\n")
	want := "first line\nsecond line"
	if got != want {
		t.Errorf("NormalizeNotes() = %q, want %q", got, want)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"already e164", "+14155552671", "+14155552671"},
		{"formatted international", "+1 (415) 555-2671", "+14155552671"},
		{"israeli national", "050-123-4567", "+972501234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.in); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{" alice", "bob", "", "alice ", "  "})
	want := []string{"alice", "bob"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeIDs() = %v, want %v", got, want)
	}
	if NormalizeIDs(nil) != nil {
		t.Errorf("nil input should stay nil")
	}
}

func TestSanitizeSnapshot(t *testing.T) {
	snap := &model.Snapshot{
		Business: model.Business{ID: " biz ", Name: " Corner  Salon"},
		Staff:    []model.StaffMember{{ID: "alice ", BusinessID: "biz", Name: "Alice  B", ServiceIDs: []string{"cut", "cut "}}},
		Services: []model.Service{{ID: "cut", BusinessID: " biz", Name: "Haircut", EligibleStaffIDs: []string{"alice", " alice"}}},
		Customers: []model.Customer{{ID: "c1", BusinessID: "biz", Name: "Carol", Phone: "+1 415 555 2671"}},
		Bookings: []model.Booking{{ID: " b1", BusinessID: "biz", ServiceID: " cut", CustomerID: "c1 ", Notes: " hi "}},
	}

	SanitizeSnapshot(snap)

	if snap.Business.ID != "biz" || snap.Business.Name != "Corner Salon" {
		t.Errorf("business not normalized: %+v", snap.Business)
	}
	if snap.Staff[0].ID != "alice" || snap.Staff[0].Name != "Alice B" || len(snap.Staff[0].ServiceIDs) != 1 {
		t.Errorf("staff not normalized: %+v", snap.Staff[0])
	}
	if snap.Services[0].BusinessID != "biz" || !reflect.DeepEqual(snap.Services[0].EligibleStaffIDs, []string{"alice"}) {
		t.Errorf("service not normalized: %+v", snap.Services[0])
	}
	if snap.Customers[0].Phone != "+14155552671" {
		t.Errorf("phone = %q", snap.Customers[0].Phone)
	}
	b := snap.Bookings[0]
	if b.ID != "b1" || b.ServiceID != "cut" || b.CustomerID != "c1" || b.Notes != "hi" {
		t.Errorf("booking not normalized: %+v", b)
	}
}
