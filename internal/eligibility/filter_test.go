package eligibility

import "testing"

func nzConfig() Config {
	return Config{
		CountryPrefixes:   []string{"+64"},
		MobileSubPrefixes: []string{"21", "22", "27", "29"},
	}
}

func TestFilter_Check(t *testing.T) {
	f := New(nzConfig())

	cases := []struct {
		name    string
		number  string
		allowed bool
		reason  Reason
	}{
		{"nz mobile with formatting", "+64 21-082 2348", true, ReasonOK},
		{"nz mobile plain", "+64210822348", true, ReasonOK},
		{"nz mobile parentheses", "+64 (21) 082 2348", true, ReasonOK},
		{"us number", "+15551234567", false, ReasonNoPrefix},
		{"nz landline", "+6494561234", false, ReasonNotMobile},
		{"nz too short", "+64211234", false, ReasonTooShort},
		{"no prefix at all", "0210822348", false, ReasonNoPrefix},
		{"empty", "", false, ReasonNoPrefix},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := f.Check(tc.number)
			if d.Allowed != tc.allowed {
				t.Fatalf("Check(%q): allowed = %v, want %v", tc.number, d.Allowed, tc.allowed)
			}
			if d.Reason != tc.reason {
				t.Fatalf("Check(%q): reason = %q, want %q", tc.number, d.Reason, tc.reason)
			}
		})
	}
}

func TestFilter_FormattingVariantsAgree(t *testing.T) {
	f := New(nzConfig())

	variants := []string{
		"+64210822348",
		"+64 21 082 2348",
		"+64-21-082-2348",
		"+64 (21) 0822348",
		"  +64 21-082 2348  ",
	}
	for _, v := range variants {
		if !f.Check(v).Allowed {
			t.Fatalf("variant %q rejected; all variants of the same digits must agree", v)
		}
	}
}

func TestFilter_OtherCountryLengthCheck(t *testing.T) {
	f := New(Config{CountryPrefixes: []string{"+61"}})

	if d := f.Check("+61412345678"); !d.Allowed {
		t.Fatalf("expected accept for long +61 number, got %q", d.Reason)
	}
	if d := f.Check("+614123"); d.Allowed || d.Reason != ReasonTooShort {
		t.Fatalf("expected too_short for short +61 number, got %+v", d)
	}
}

func TestFilter_ZeroConfigRejectsEverything(t *testing.T) {
	f := New(Config{})
	if f.Check("+64210822348").Allowed {
		t.Fatalf("zero config must reject")
	}
}
