package utils

import (
	"testing"
	"time"
)

type slotRequest struct {
	StartTime time.Time `json:"start_time" validate:"required,future"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Role      string    `json:"role" validate:"omitempty,oneof=user admin"`
}

func TestValidateStruct(t *testing.T) {
	start := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		req  slotRequest
		want map[string]string
	}{
		{
			name: "valid",
			req:  slotRequest{StartTime: start, EndTime: start.Add(time.Hour)},
		},
		{
			name: "start in the past",
			req:  slotRequest{StartTime: time.Now().Add(-time.Hour), EndTime: start},
			want: map[string]string{"start_time": "Must be in the future"},
		},
		{
			name: "end before start",
			req:  slotRequest{StartTime: start, EndTime: start.Add(-time.Minute)},
			want: map[string]string{"end_time": "Must be after start_time"},
		},
		{
			name: "bad role",
			req:  slotRequest{StartTime: start, EndTime: start.Add(time.Hour), Role: "root"},
			want: map[string]string{"role": "Must be one of: user, admin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateStruct(tt.req)
			if len(got) != len(tt.want) {
				t.Fatalf("ValidateStruct() = %v, want %v", got, tt.want)
			}
			for field, msg := range tt.want {
				if got[field] != msg {
					t.Fatalf("%s: got %q, want %q", field, got[field], msg)
				}
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	got := FormatValidationErrors(map[string]string{"purpose": "This field is required", "end_time": "Must be after start_time"})
	want := "end_time: Must be after start_time; purpose: This field is required"
	if got != want {
		t.Fatalf("FormatValidationErrors() = %q, want %q", got, want)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPasswordHash("s3cret-pass", hash) || CheckPasswordHash("wrong", hash) {
		t.Fatalf("password check mismatch")
	}
}

func TestParseInt(t *testing.T) {
	for in, want := range map[string]int{"": 7, "abc": 7, "0": 7, "-3": 7, "12": 12} {
		if got := ParseInt(in, 7); got != want {
			t.Errorf("ParseInt(%q) = %d, want %d", in, got, want)
		}
	}
	if CalculateTotalPages(21, 10) != 3 || CalculateOffset(3, 10) != 20 {
		t.Fatalf("pagination helpers mismatch")
	}
}
