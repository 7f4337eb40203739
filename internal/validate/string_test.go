package validate

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestString_LengthConstraints(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		constraints StringConstraints
		want        string
		wantErr     error
	}{
		{
			name:        "within bounds",
			input:       "hello",
			constraints: StringConstraints{MinLength: 3, MaxLength: 10},
			want:        "hello",
		},
		{
			name:        "too short",
			input:       "ab",
			constraints: StringConstraints{MinLength: 3},
			wantErr:     ErrStringTooShort,
		},
		{
			name:        "too long",
			input:       "abcdef",
			constraints: StringConstraints{MaxLength: 5},
			wantErr:     ErrStringTooLong,
		},
		{
			name:        "empty rejected by default",
			input:       "",
			constraints: StringConstraints{},
			wantErr:     ErrEmpty,
		},
		{
			name:        "empty allowed",
			input:       "",
			constraints: StringConstraints{AllowEmpty: true},
			want:        "",
		},
		{
			name:        "whitespace-only trimmed to empty",
			input:       "   ",
			constraints: StringConstraints{TrimSpace: true},
			wantErr:     ErrEmpty,
		},
		{
			name:        "length counted in runes not bytes",
			input:       "రాము",
			constraints: StringConstraints{MaxLength: 4},
			want:        "రాము",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input, tt.constraints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("String() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("String() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString_Pattern(t *testing.T) {
	digits := regexp.MustCompile(`^\d+$`)

	if _, err := String("12345", StringConstraints{AllowedPattern: digits}); err != nil {
		t.Errorf("String() with matching pattern failed: %v", err)
	}
	if _, err := String("12a45", StringConstraints{AllowedPattern: digits}); !errors.Is(err, ErrInvalidCharacters) {
		t.Errorf("String() with non-matching pattern error = %v, want ErrInvalidCharacters", err)
	}
}

func TestString_SQLKeywords(t *testing.T) {
	if _, err := String("Ramu Naik", StringConstraints{CheckSQLKeywords: true}); err != nil {
		t.Errorf("String() rejected clean input: %v", err)
	}
	if _, err := String("x; DROP TABLE members", StringConstraints{CheckSQLKeywords: true}); !errors.Is(err, ErrSQLKeyword) {
		t.Errorf("String() with SQL fragment error = %v, want ErrSQLKeyword", err)
	}
	// Keywords only rejected when the check is on
	if _, err := String("select a seat", StringConstraints{}); err != nil {
		t.Errorf("String() without keyword check failed: %v", err)
	}
}

func TestString_DisallowedWords(t *testing.T) {
	constraints := StringConstraints{DisallowedWords: []string{"admin"}}
	if _, err := String("regular name", constraints); err != nil {
		t.Errorf("String() rejected clean input: %v", err)
	}
	if _, err := String("Fake ADMIN account", constraints); err == nil {
		t.Error("String() should reject disallowed words case-insensitively")
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML(`<script>alert("x")</script>`)
	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Errorf("SanitizeHTML() left raw angle brackets: %q", got)
	}
}

func TestPersonName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple name", input: "Ravi Kumar", want: "Ravi Kumar"},
		{name: "name with initial", input: "K. Ravi", want: "K. Ravi"},
		{name: "name with apostrophe", input: "D'Souza", want: "D&#39;Souza"},
		{name: "telugu script", input: "రవి కుమార్", want: "రవి కుమార్"},
		{name: "trimmed", input: "  Ravi  ", want: "Ravi"},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 101), wantErr: true},
		{name: "angle brackets rejected", input: "<Ravi>", wantErr: true},
		{name: "at sign rejected", input: "ravi@home", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PersonName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("PersonName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("PersonName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain username", input: "state_admin", want: "state_admin"},
		{name: "mobile number as username", input: "9876543210", want: "9876543210"},
		{name: "dots and dashes", input: "first.last-2", want: "first.last-2"},
		{name: "too short", input: "ab", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 51), wantErr: true},
		{name: "spaces rejected", input: "state admin", wantErr: true},
		{name: "sql fragment rejected", input: "a--comment", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Username(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Username(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Username(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	if got, err := Description(""); err != nil || got != "" {
		t.Errorf("Description(\"\") = %q, %v; want empty, nil", got, err)
	}
	if _, err := Description("a short note about the institution"); err != nil {
		t.Errorf("Description() error = %v", err)
	}
	if _, err := Description(strings.Repeat("a", 5001)); err == nil {
		t.Error("Description() should reject text over 5000 chars")
	}
}
