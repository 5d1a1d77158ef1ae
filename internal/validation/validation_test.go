package validation

import "testing"

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{
			name:     "simple login",
			username: "alice_01",
			valid:    true,
		},
		{
			name:     "too short",
			username: "ab",
			valid:    false,
		},
		{
			name:     "too long",
			username: "a_very_long_username_x",
			valid:    false,
		},
		{
			name:     "forbidden characters",
			username: "alice-01",
			valid:    false,
		},
		{
			name:     "empty string",
			username: "",
			valid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidUsername(tt.username)
			if got != tt.valid {
				t.Fatalf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.valid)
			}
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{
			name:  "plain digits",
			phone: "79991234567",
			valid: true,
		},
		{
			name:  "leading plus",
			phone: "+79991234567",
			valid: true,
		},
		{
			name:  "plus in the middle",
			phone: "7999+1234567",
			valid: false,
		},
		{
			name:  "too short",
			phone: "1234567",
			valid: false,
		},
		{
			name:  "contains letters",
			phone: "7999abc4567",
			valid: false,
		},
		{
			name:  "empty string",
			phone: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidPhone(tt.phone)
			if got != tt.valid {
				t.Fatalf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
			}
		})
	}
}

func TestIsValidInviteCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{
			name:  "six digits",
			code:  "123456",
			valid: true,
		},
		{
			name:  "five digits",
			code:  "12345",
			valid: false,
		},
		{
			name:  "seven digits",
			code:  "1234567",
			valid: false,
		},
		{
			name:  "letters",
			code:  "12a456",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidInviteCode(tt.code)
			if got != tt.valid {
				t.Fatalf("IsValidInviteCode(%q) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}
