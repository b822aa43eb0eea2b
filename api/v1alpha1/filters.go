package v1alpha1

import (
	"strconv"
	"strings"
)

// Filters is the investment-thesis payload sent as the "filters" form field at job creation.
type Filters struct {
	ContextText string   `json:"context_text"`
	Sector      string   `json:"sector"`
	Stage       string   `json:"stage"`
	Geography   string   `json:"geography"`
	TicketMin   *float64 `json:"ticket_min"`
	TicketMax   *float64 `json:"ticket_max"`
}

// NewFilters builds the filter payload, deriving the ticket bounds from a free-text range
// such as "$500k - $2M" or "100000-500000".
func NewFilters(thesis, sector, stage, geography, ticketSize string) Filters {
	lo, hi := ParseTicketRange(ticketSize)
	return Filters{
		ContextText: thesis,
		Sector:      sector,
		Stage:       stage,
		Geography:   geography,
		TicketMin:   lo,
		TicketMax:   hi,
	}
}

// ParseTicketRange splits s on "-" and strips every character that is not a digit or a dot
// from each side. A side that is absent or does not parse yields nil.
// Unit suffixes are dropped, not applied: "2M" parses as 2.
func ParseTicketRange(s string) (lo *float64, hi *float64) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.SplitN(s, "-", 3)
	lo = parseTicketBound(parts[0])
	if len(parts) > 1 {
		hi = parseTicketBound(parts[1])
	}
	return lo, hi
}

func parseTicketBound(s string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}
