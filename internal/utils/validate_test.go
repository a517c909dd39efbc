package utils

import "testing"

func TestValidPhone(t *testing.T) {
	valid := []string{"9876543210", "6123456789", "919876543210", "+919876543210"}
	for _, s := range valid {
		if !ValidPhone(s) {
			t.Errorf("ValidPhone(%q) = false", s)
		}
	}
	invalid := []string{
		"",
		"5876543210",    // leading digit below 6
		"987654321",     // too short
		"98765432100",   // too long
		"+929876543210", // wrong country code
		"98765 43210",
		"abcdefghij",
	}
	for _, s := range invalid {
		if ValidPhone(s) {
			t.Errorf("ValidPhone(%q) = true", s)
		}
	}
}

func TestValidEmail(t *testing.T) {
	if !ValidEmail("ravi@example.com") {
		t.Error("plain address rejected")
	}
	for _, s := range []string{"", "ravi", "ravi@", "@example.com", "ravi@example", "a b@example.com"} {
		if ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = true", s)
		}
	}
}
