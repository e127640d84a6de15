// Package messaging handles seller outreach over SMS: extracting phone
// numbers from listing text, normalizing them to E.164, and delivering
// messages through the provider API.
package messaging

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// Private sellers format numbers every way imaginable. Strong patterns
// first; the bare seven-digit form last because it produces the most
// false positives.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\(\d{3}\)[\s-]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\d{3}-\d{4}`),
}

var digitsOnly = regexp.MustCompile(`\D`)

// LocalAreaCode completes seven-digit numbers. The deployment targets
// Hawaii listings, hence 808.
const LocalAreaCode = "808"

// ExtractPhone scans text for the first phone-number-shaped substring and
// returns it normalized. The second return is false when nothing usable
// was found.
func ExtractPhone(text string) (string, bool) {
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(text); match != "" {
			if normalized := NormalizePhone(match); normalized != "" {
				return normalized, true
			}
		}
	}
	return "", false
}

// NormalizePhone converts a raw phone string to E.164. It returns ""
// when the input cannot be shaped into a US number.
func NormalizePhone(raw string) string {
	digits := digitsOnly.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) == 7:
		return "+1" + LocalAreaCode + digits
	case len(digits) > 10:
		return "+1" + digits[len(digits)-10:]
	default:
		return ""
	}
}

// InquiryMessage builds the text sent to a seller. It names the vehicle
// when year, make, and model are known and falls back to the raw title.
func InquiryMessage(l lead.Lead) string {
	vehicle := strings.TrimSpace(fmt.Sprintf("%s %s %s", yearString(l), l.Make, l.Model))
	if l.Make == "" || l.Model == "" {
		vehicle = l.Title
	}
	return fmt.Sprintf("Hi, I saw your listing for the %s. Is it still available?", vehicle)
}

func yearString(l lead.Lead) string {
	if l.Year == 0 {
		return ""
	}
	return fmt.Sprintf("%d", l.Year)
}
