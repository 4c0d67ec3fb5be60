package locale

import "strings"

// RegionForPhone matches a normalized E.164 phone by its calling code.
func RegionForPhone(phone string) (Region, bool) {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") {
		return Region{}, false
	}
	for _, r := range Regions {
		if strings.HasPrefix(phone, r.DialingPrefix) {
			return r, true
		}
	}
	return Region{}, false
}

// TimezoneForPhone falls back to DefaultTimezone for unknown or empty phones.
func TimezoneForPhone(phone string) string {
	if r, ok := RegionForPhone(phone); ok {
		return r.Timezone
	}
	return DefaultTimezone
}
