package money

import (
	"errors"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"150", 150},
		{"75L", 75},
		{"75 lakhs", 75},
		{"₹1.5Cr", 150},
		{"₹ 2 crore", 200},
		{"1.25 Cr", 125},
		{"rs. 40 lac", 40},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"abc",
		"-5",
		"1.5.2Cr",
		"10 dollars",
		"Cr",
	}
	for _, in := range tests {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Parse(%q): expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestParse_Fractional(t *testing.T) {
	if _, err := Parse("2.5L"); !errors.Is(err, ErrFractionalAmount) {
		t.Errorf("expected ErrFractionalAmount, got %v", err)
	}
	if _, err := Parse("1.255Cr"); !errors.Is(err, ErrFractionalAmount) {
		t.Errorf("expected ErrFractionalAmount, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{75, "₹75 L"},
		{0, "₹0 L"},
		{100, "₹1 Cr"},
		{150, "₹1.5 Cr"},
		{1525, "₹15.25 Cr"},
		{-20, "-₹20 L"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatParseAgree(t *testing.T) {
	for _, a := range []Amount{5, 99, 100, 150, 1525, 2000} {
		got, err := Parse(Format(a))
		if err != nil {
			t.Fatalf("Parse(Format(%d)): %v", a, err)
		}
		if got != a {
			t.Errorf("Parse(Format(%d)) = %d", a, got)
		}
	}
}
