package core

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		v    float64
		lang string
		out  string
	}{
		{1234.5, "pt", "CVE 1.234,50"},
		{1234.5, "en", "CVE 1,234.50"},
		{0, "pt", "CVE 0,00"},
		{1000000, "en", "CVE 1,000,000.00"},
		{-250, "pt", "CVE -250,00"},
		{99.99, "xx", "CVE 99,99"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.v, tc.lang); got != tc.out {
			t.Fatalf("FormatAmount(%v, %q) = %q, want %q", tc.v, tc.lang, got, tc.out)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	in := Transaction{Amount: 1500, Type: Inflow}
	if got := FormatSigned(in, "pt"); got != "+1.500,00 CVE" {
		t.Fatalf("inflow = %q", got)
	}
	out := Transaction{Amount: 20.5, Type: Outflow}
	if got := FormatSigned(out, "en"); got != "-20.50 CVE" {
		t.Fatalf("outflow = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{
		42:     "42%",
		33.333: "33.3%",
		100:    "100%",
	}
	for in, want := range cases {
		if got := FormatPercent(in); got != want {
			t.Fatalf("FormatPercent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestMask(t *testing.T) {
	if got := Mask("CVE 1.000,00"); got != "CVE •••••" {
		t.Fatalf("Mask = %q", got)
	}
	if got := Mask("Saudável"); got != "•••••" {
		t.Fatalf("Mask = %q", got)
	}
}
