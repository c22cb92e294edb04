package core

// query.go is the in-memory query engine.
//
// Query runs a fixed pipeline over a copy of the collection:
// search, set filters, tags, age range, date range, sort, paginate.
// Each stage is a pure filter so the order only matters for readability.
// The caller's slice is never reordered.

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// folder produces the case-insensitive key used for search and name
// sorting. Folding is broader than lowercasing: "Straße" matches "STRASSE".
// A cases.Caser is not safe for concurrent use, so each Match builds its own.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(s)
}

// Query filters, sorts and paginates records according to c.
func Query(records []Record, c Criteria) ResultPage {
	matched := Match(records, c)

	page := max(c.Page, 1)
	pageSize := max(c.PageSize, 1)
	total := len(matched)

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	data := []Record{}
	start := (page - 1) * pageSize
	if start < total {
		end := min(start+pageSize, total)
		data = append(data, matched[start:end]...)
	}

	return ResultPage{
		Meta: PageMeta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
		Data: data,
	}
}

// Match returns every record that satisfies c, sorted, without pagination.
// The returned slice is freshly allocated.
func Match(records []Record, c Criteria) []Record {
	out := make([]Record, 0, len(records))
	f := newFolder()
	preds := buildPredicates(c, f)

	for i := range records {
		if matchesAll(&records[i], preds) {
			out = append(out, records[i])
		}
	}

	sortRecords(out, c.SortBy, c.SortDir, f)
	return out
}

type predicate func(r *Record) bool

func matchesAll(r *Record, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// buildPredicates turns criteria into the filter stages that apply.
func buildPredicates(c Criteria, f *folder) []predicate {
	var preds []predicate

	if c.Search != "" {
		term := f.fold(c.Search)
		preds = append(preds, func(r *Record) bool {
			return strings.Contains(f.fold(r.CustomerName), term) ||
				strings.Contains(f.fold(r.PhoneNumber), term)
		})
	}

	preds = appendSetFilter(preds, c.Regions, func(r *Record) string { return r.CustomerRegion })
	preds = appendSetFilter(preds, c.Genders, func(r *Record) string { return r.Gender })
	preds = appendSetFilter(preds, c.Categories, func(r *Record) string { return r.ProductCategory })
	preds = appendSetFilter(preds, c.PaymentMethods, func(r *Record) string { return r.PaymentMethod })

	if len(c.Tags) > 0 {
		want := c.Tags
		preds = append(preds, func(r *Record) bool {
			have := SplitTags(r.Tags)
			for _, t := range want {
				if !slices.Contains(have, t) {
					return false
				}
			}
			return true
		})
	}

	if c.AgeRange != nil {
		lo, hi := DefaultAgeMin, DefaultAgeMax
		if c.AgeRange.Min != nil {
			lo = *c.AgeRange.Min
		}
		if c.AgeRange.Max != nil {
			hi = *c.AgeRange.Max
		}
		preds = append(preds, func(r *Record) bool {
			age := r.AgeOrZero()
			return age >= lo && age <= hi
		})
	}

	if c.DateRange != nil {
		from := boundOr(c.DateRange.From, farPast)
		to := boundOr(c.DateRange.To, farFuture)
		preds = append(preds, func(r *Record) bool {
			d, ok := ParseDate(r.Date)
			if !ok {
				return false
			}
			return !d.Before(from) && !d.After(to)
		})
	}

	return preds
}

// appendSetFilter adds an OR-membership stage when values is non-empty.
// An empty field never matches.
func appendSetFilter(preds []predicate, values []string, field func(*Record) string) []predicate {
	if len(values) == 0 {
		return preds
	}
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return append(preds, func(r *Record) bool {
		v := field(r)
		if v == "" {
			return false
		}
		_, ok := allowed[v]
		return ok
	})
}

// SplitTags splits a comma-joined tag string into trimmed, non-empty tags.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// sortRecords orders records in place with a stable sort.
// Unknown fields leave the input order untouched; unknown directions mean desc.
func sortRecords(records []Record, field SortField, dir SortDirection, f *folder) {
	switch field {
	case SortByDate:
		sortStableBy(records, dir, func(r *Record) dateKey {
			t, ok := ParseDate(r.Date)
			return dateKey{at: t, ok: ok}
		}, compareDateKeys)
	case SortByQuantity:
		sortStableBy(records, dir, func(r *Record) int { return r.Quantity }, cmp.Compare[int])
	case SortByCustomerName:
		sortStableBy(records, dir, func(r *Record) string { return f.fold(r.CustomerName) }, strings.Compare)
	}
}

// sortStableBy computes each key once, then sorts stably on it.
// Ties keep input order in both directions.
func sortStableBy[K any](records []Record, dir SortDirection, key func(*Record) K, compare func(a, b K) int) {
	items := make([]keyedRecord[K], len(records))
	for i := range records {
		items[i] = keyedRecord[K]{key: key(&records[i]), rec: records[i]}
	}

	slices.SortStableFunc(items, func(a, b keyedRecord[K]) int {
		c := compare(a.key, b.key)
		if dir == SortAsc {
			return c
		}
		return -c
	})

	for i := range items {
		records[i] = items[i].rec
	}
}

type keyedRecord[K any] struct {
	key K
	rec Record
}

// dateKey is a parsed record date; unparseable dates sort lowest.
type dateKey struct {
	at time.Time
	ok bool
}

func compareDateKeys(a, b dateKey) int {
	switch {
	case !a.ok && !b.ok:
		return 0
	case !a.ok:
		return -1
	case !b.ok:
		return 1
	}
	return a.at.Compare(b.at)
}
