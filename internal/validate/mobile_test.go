package validate

import (
	"errors"
	"testing"
)

func TestMobileNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain ten digits", input: "9876543210", want: "9876543210"},
		{name: "starts with 6", input: "6000000001", want: "6000000001"},
		{name: "trimmed", input: " 9876543210 ", want: "9876543210"},
		{name: "plus country code", input: "+919876543210", want: "9876543210"},
		{name: "bare country code", input: "919876543210", want: "9876543210"},
		{name: "leading zero", input: "09876543210", want: "9876543210"},
		{name: "spaces inside", input: "98765 43210", want: "9876543210"},
		{name: "dashes inside", input: "98765-43210", want: "9876543210"},
		{name: "empty", input: "", wantErr: ErrEmpty},
		{name: "too short", input: "987654321", wantErr: ErrInvalidMobile},
		{name: "too long", input: "98765432109", wantErr: ErrInvalidMobile},
		{name: "starts with 5", input: "5876543210", wantErr: ErrInvalidMobile},
		{name: "letters", input: "98765abcde", wantErr: ErrInvalidMobile},
		{name: "landline with std code", input: "04023456789", wantErr: ErrInvalidMobile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MobileNumber(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("MobileNumber(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MobileNumber(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("MobileNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
