package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePageOrder parses a 1-based page order such as "3,1,2", "5-1" or "1-3,7".
// Unlike a page selection the order is kept as written and repeats are allowed.
// "all" expands to every page in natural order.
func ParsePageOrder(spec string, pageCount int) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptyPageOrder
	}
	if strings.EqualFold(spec, "all") {
		return naturalOrder(pageCount), nil
	}

	var pages []int
	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if start, end, ok := strings.Cut(part, "-"); ok {
			from, err := parsePage(start, pageCount)
			if err != nil {
				return nil, err
			}
			to, err := parsePage(end, pageCount)
			if err != nil {
				return nil, err
			}
			step := 1
			if to < from {
				step = -1
			}
			for p := from; p != to+step; p += step {
				pages = append(pages, p)
			}
			continue
		}

		p, err := parsePage(part, pageCount)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}

	if len(pages) == 0 {
		return nil, ErrEmptyPageOrder
	}
	return pages, nil
}

// ValidatePageNumbers checks that every 1-based page is within [1, pageCount]
func ValidatePageNumbers(pages []int, pageCount int) error {
	if len(pages) == 0 {
		return ErrEmptyPageOrder
	}
	for _, p := range pages {
		if p < 1 || p > pageCount {
			return fmt.Errorf("%w: page %d out of range (document has %d pages)", ErrInvalidPageOrder, p, pageCount)
		}
	}
	return nil
}

func parsePage(s string, pageCount int) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a page number", ErrInvalidPageOrder, s)
	}
	if p < 1 || p > pageCount {
		return 0, fmt.Errorf("%w: page %d out of range (document has %d pages)", ErrInvalidPageOrder, p, pageCount)
	}
	return p, nil
}

func naturalOrder(pageCount int) []int {
	pages := make([]int, pageCount)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// pageSelection renders 1-based pages in the form pdfcpu's collect command expects
func pageSelection(pages []int) []string {
	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = strconv.Itoa(p)
	}
	return sel
}

// interleaveOrder returns the collect order that alternates the pages of two
// appended documents: A1,B1,A2,B2... with the longer tail left at the end.
func interleaveOrder(countA, countB int) []int {
	order := make([]int, 0, countA+countB)
	for i := 0; i < max(countA, countB); i++ {
		if i < countA {
			order = append(order, i+1)
		}
		if i < countB {
			order = append(order, countA+i+1)
		}
	}
	return order
}
