package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/salesview/internal/core"
)

// criteriaFromQuery decodes query parameters into Criteria.
//
// Set parameters accept comma-joined values, repeated keys, or both, under
// any of their aliases. Malformed numbers fall back to their defaults rather
// than failing the request; negative paging values clamp to 1.
func criteriaFromQuery(q url.Values, defaultPageSize, maxPageSize int) core.Criteria {
	c := core.Criteria{
		Search:         first(q, "q", "search"),
		Regions:        multi(q, "regions", "region"),
		Genders:        multi(q, "gender", "genders"),
		Categories:     multi(q, "category", "categories"),
		Tags:           multi(q, "tags", "tag"),
		PaymentMethods: multi(q, "payment", "paymentMethods"),
		SortBy:         sortField(first(q, "sortBy")),
		SortDir:        sortDirection(first(q, "sortDir")),
	}

	ageMin, ageMax := first(q, "ageMin"), first(q, "ageMax")
	if ageMin != "" || ageMax != "" {
		c.AgeRange = &core.IntRange{Min: optionalInt(ageMin), Max: optionalInt(ageMax)}
	}

	dateFrom, dateTo := first(q, "dateFrom"), first(q, "dateTo")
	if dateFrom != "" || dateTo != "" {
		c.DateRange = &core.DateRange{From: dateFrom, To: dateTo}
	}

	c.Page = pagingInt(first(q, "page"), 1)
	c.PageSize = pagingInt(first(q, "pageSize"), defaultPageSize)
	if maxPageSize > 0 && c.PageSize > maxPageSize {
		c.PageSize = maxPageSize
	}
	return c
}

// first returns the first non-blank value among keys, trimmed.
func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		for _, v := range q[k] {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// multi collects every value under keys, splitting on commas and dropping
// blanks. Returns nil when nothing remains, which disables the filter.
func multi(q url.Values, keys ...string) []string {
	var out []string
	for _, k := range keys {
		for _, v := range q[k] {
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

func optionalInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// pagingInt returns def for a missing, malformed or zero value and clamps
// anything else to at least 1.
func pagingInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return def
	}
	return max(n, 1)
}

// sortField accepts display names, snake case and camel case.
// Unrecognised names pass through and leave input order untouched.
func sortField(s string) core.SortField {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	switch key {
	case "":
		return ""
	case "date":
		return core.SortByDate
	case "quantity":
		return core.SortByQuantity
	case "customername":
		return core.SortByCustomerName
	}
	return core.SortField(s)
}

// sortDirection maps anything other than asc to desc.
func sortDirection(s string) core.SortDirection {
	if s == "" {
		return ""
	}
	if strings.EqualFold(s, "asc") {
		return core.SortAsc
	}
	return core.SortDesc
}
