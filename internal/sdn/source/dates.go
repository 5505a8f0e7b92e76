package source

import (
	"fmt"
	"strconv"
	"strings"
)

// Earliest returns the first known date of the period as YYYY, YYYY-MM or
// YYYY-MM-DD, checking Start then End. Returns "" when no year is known.
func (p *DatePeriod) Earliest() string {
	if p == nil {
		return ""
	}
	for _, b := range []*DateBoundary{p.Start, p.End} {
		if b == nil || b.From == nil {
			continue
		}
		if s := b.From.String(); s != "" {
			return s
		}
	}
	return ""
}

// String formats the known parts. A day without a month is dropped.
func (d *DateParts) String() string {
	if d == nil {
		return ""
	}
	year := strings.TrimSpace(d.Year)
	if year == "" {
		return ""
	}
	month := pad2(d.Month)
	if month == "" {
		return year
	}
	day := pad2(d.Day)
	if day == "" {
		return year + "-" + month
	}
	return year + "-" + month + "-" + day
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if n, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%02d", n)
	}
	return s
}

// dateOfIssue accepts both a plain text date and Year/Month/Day children.
type dateOfIssue struct {
	DateParts
	Text string `xml:",chardata"`
}

func (d dateOfIssue) String() string {
	if s := d.DateParts.String(); s != "" {
		return s
	}
	return strings.TrimSpace(d.Text)
}
