package pdfservices

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange is an inclusive, 1-based range. End == 0 means "to the last page".
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end,omitempty"`
}

// PageRanges is an ordered list of page ranges. A nil PageRanges means all pages.
type PageRanges []PageRange

func (p *PageRanges) AddSinglePage(page int) *PageRanges {
	*p = append(*p, PageRange{Start: page, End: page})
	return p
}

func (p *PageRanges) AddRange(start, end int) *PageRanges {
	*p = append(*p, PageRange{Start: start, End: end})
	return p
}

// AddAllFrom adds the open range start..last page.
func (p *PageRanges) AddAllFrom(start int) *PageRanges {
	*p = append(*p, PageRange{Start: start})
	return p
}

// Validate checks every range is well formed. field names the owning
// parameter in the returned ValidationError.
func (p PageRanges) Validate(field string) error {
	for i, r := range p {
		if r.Start < 1 {
			return validationError(field, "range %d: start page must be >= 1, got %d", i, r.Start)
		}
		if r.End != 0 && r.End < r.Start {
			return validationError(field, "range %d: end page %d precedes start page %d", i, r.End, r.Start)
		}
	}
	return nil
}

// MaxPage returns the highest page explicitly referenced, or 0 for none.
func (p PageRanges) MaxPage() int {
	highest := 0
	for _, r := range p {
		highest = max(highest, r.Start, r.End)
	}
	return highest
}

// String renders the ranges as "1,3-4,5-".
func (p PageRanges) String() string {
	parts := make([]string, 0, len(p))
	for _, r := range p {
		switch {
		case r.End == 0:
			parts = append(parts, fmt.Sprintf("%d-", r.Start))
		case r.End == r.Start:
			parts = append(parts, strconv.Itoa(r.Start))
		default:
			parts = append(parts, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}
	return strings.Join(parts, ",")
}

// ParsePageRanges parses the String form. An empty string yields nil (all pages).
func ParsePageRanges(s string) (PageRanges, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out PageRanges
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		start, end, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return nil, validationError("pageRanges", "invalid page %q", part)
		}
		if !isRange {
			out.AddSinglePage(first)
			continue
		}
		end = strings.TrimSpace(end)
		if end == "" {
			out.AddAllFrom(first)
			continue
		}
		last, err := strconv.Atoi(end)
		if err != nil {
			return nil, validationError("pageRanges", "invalid page range %q", part)
		}
		out.AddRange(first, last)
	}
	if err := out.Validate("pageRanges"); err != nil {
		return nil, err
	}
	return out, nil
}
