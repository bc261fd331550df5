// Package eligibility decides which callers may use the service.
package eligibility

import "strings"

// Decision is the outcome of checking one caller number.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Reason explains a rejection. Accepted numbers carry ReasonOK.
type Reason string

const (
	ReasonOK        Reason = "ok"
	ReasonNoPrefix  Reason = "no_prefix"
	ReasonTooShort  Reason = "too_short"
	ReasonNotMobile Reason = "not_mobile"
)

// Config holds the accepted-number policy. The zero value rejects everything.
type Config struct {
	// CountryPrefixes are the accepted country codes, e.g. ["+64"].
	CountryPrefixes []string

	// MobileSubPrefixes restricts NZ numbers to mobile ranges after the +64
	// prefix (e.g. 21, 22, 27, 29). Other country codes get a plain length
	// check instead.
	MobileSubPrefixes []string
}

// Filter is a pure predicate over caller numbers; it has no side effects and
// is safe to share across concurrent requests.
type Filter struct {
	cfg Config
}

func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// nzPrefix is the country code that gets the mobile sub-prefix check.
const nzPrefix = "+64"

// Check normalizes a human-entered number and decides accept/reject.
// Formatting variants of the same digits (spaces, hyphens, parentheses)
// always produce the same decision.
func (f *Filter) Check(number string) Decision {
	clean := Normalize(number)

	for _, prefix := range f.cfg.CountryPrefixes {
		if !strings.HasPrefix(clean, prefix) {
			continue
		}
		if prefix == nzPrefix {
			rest := clean[len(prefix):]
			if len(rest) < 8 {
				return Decision{Reason: ReasonTooShort}
			}
			for _, sub := range f.cfg.MobileSubPrefixes {
				if strings.HasPrefix(rest, sub) {
					return Decision{Allowed: true, Reason: ReasonOK}
				}
			}
			return Decision{Reason: ReasonNotMobile}
		}
		if len(clean) < 10 {
			return Decision{Reason: ReasonTooShort}
		}
		return Decision{Allowed: true, Reason: ReasonOK}
	}

	return Decision{Reason: ReasonNoPrefix}
}

// Normalize strips the formatting punctuation people type into phone numbers.
func Normalize(number string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(number))
}
