package locale

const DefaultTimezone = "UTC"

// Region is a calling region the practice accepts patient phones from.
type Region struct {
	Code          string // ISO 3166-1 alpha-2, e.g. "IL"
	Name          string
	DialingPrefix string // E.164 calling code including "+"
	Timezone      string // IANA zone reminders are scheduled in
}

// Regions is ordered: phone parsing tries them first to last.
var Regions = []Region{
	{Code: "IL", Name: "Israel", DialingPrefix: "+972", Timezone: "Asia/Jerusalem"},
	{Code: "US", Name: "United States", DialingPrefix: "+1", Timezone: "America/New_York"},
}

func RegionCodes() []string {
	codes := make([]string, 0, len(Regions))
	for _, r := range Regions {
		codes = append(codes, r.Code)
	}
	return codes
}
