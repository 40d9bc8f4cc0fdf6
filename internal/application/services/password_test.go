package services

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "Valid: all classes present", password: "Str0ng!pass", valid: true},
		{name: "Valid: exactly eight chars", password: "Aa1!aaaa", valid: true},
		{name: "Invalid: too short", password: "Aa1!a", valid: false},
		{name: "Invalid: no upper case", password: "str0ng!pass", valid: false},
		{name: "Invalid: no lower case", password: "STR0NG!PASS", valid: false},
		{name: "Invalid: no digit", password: "Strong!pass", valid: false},
		{name: "Invalid: no symbol", password: "Str0ngpass", valid: false},
		{name: "Invalid: empty", password: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid && err != nil {
				t.Errorf("ValidatePassword(%q) = %v, want nil", tt.password, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidatePassword(%q) = nil, want error", tt.password)
			}
		})
	}
}
