package sanitizer

import (
	"strings"

	"clinicflow/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

var supportedRegions = locale.RegionCodes()

// NormalizePhone returns phone in E.164 form, or "" when no supported region
// accepts it as a possible number.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if !phonenumbers.IsPossibleNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}
