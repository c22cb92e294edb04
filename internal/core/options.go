package core

import "slices"

// CollectOptions scans records and returns the distinct non-empty values of
// each filterable field, sorted. Tags are split so each option is a single tag.
// Every list is non-nil, so an empty collection encodes as empty JSON arrays.
func CollectOptions(records []Record) FilterOptions {
	regions := newValueSet()
	genders := newValueSet()
	categories := newValueSet()
	tags := newValueSet()
	payments := newValueSet()

	for i := range records {
		r := &records[i]
		regions.add(r.CustomerRegion)
		genders.add(r.Gender)
		categories.add(r.ProductCategory)
		payments.add(r.PaymentMethod)
		for _, t := range SplitTags(r.Tags) {
			tags.add(t)
		}
	}

	return FilterOptions{
		CustomerRegions:   regions.sorted(),
		Genders:           genders.sorted(),
		ProductCategories: categories.sorted(),
		Tags:              tags.sorted(),
		PaymentMethods:    payments.sorted(),
	}
}

// Normalize ensures every list is non-nil and sorted. Stores that compute
// options themselves pass their result through here.
func (o *FilterOptions) Normalize() {
	for _, list := range []*[]string{
		&o.CustomerRegions,
		&o.Genders,
		&o.ProductCategories,
		&o.Tags,
		&o.PaymentMethods,
	} {
		if *list == nil {
			*list = []string{}
		}
		slices.Sort(*list)
		*list = slices.Compact(*list)
	}
}

type valueSet map[string]struct{}

func newValueSet() valueSet { return make(valueSet) }

func (s valueSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s valueSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
