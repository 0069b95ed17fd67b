package sink

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used to interpret phone numbers written without a country code
const DefaultRegion = "US"

// E164 normalizes raw to E.164, or returns "" when it is not a valid number
func E164(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
