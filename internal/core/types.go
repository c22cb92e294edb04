// Package core provides the business logic for browsing sales records.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one sales transaction.
//
// Optional text fields use the empty string for "null". Numeric fields that
// fail to parse during import are zero-filled; Age is the only numeric field
// that may be absent.
type Record struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	CustomerID     string `json:"customer_id" validate:"required"`
	CustomerName   string `json:"customer_name,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Age            *int   `json:"age,omitempty" validate:"omitempty,min=0"`
	CustomerRegion string `json:"customer_region,omitempty"`
	CustomerType   string `json:"customer_type,omitempty"`

	ProductID       string `json:"product_id" validate:"required"`
	ProductName     string `json:"product_name,omitempty"`
	Brand           string `json:"brand,omitempty"`
	ProductCategory string `json:"product_category,omitempty"`
	Tags            string `json:"tags,omitempty"` // comma-joined

	Quantity           int             `json:"quantity" validate:"min=0"`
	PricePerUnit       decimal.Decimal `json:"price_per_unit" validate:"min=0"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"min=0,max=100"`
	TotalAmount        decimal.Decimal `json:"total_amount" validate:"min=0"`
	FinalAmount        decimal.Decimal `json:"final_amount" validate:"min=0"`

	Date          string `json:"date,omitempty"` // original token, see ParseDate
	PaymentMethod string `json:"payment_method,omitempty"`
	OrderStatus   string `json:"order_status,omitempty"`
	DeliveryType  string `json:"delivery_type,omitempty"`
	StoreID       string `json:"store_id,omitempty"`
	StoreLocation string `json:"store_location,omitempty"`
	SalespersonID string `json:"salesperson_id,omitempty"`
	EmployeeName  string `json:"employee_name,omitempty"`
}

// AgeOrZero returns the record's age, or 0 when absent.
func (r *Record) AgeOrZero() int {
	if r.Age == nil {
		return 0
	}
	return *r.Age
}

// SortField selects the ordering applied by Query.
type SortField string

const (
	SortByDate         SortField = "date"
	SortByQuantity     SortField = "quantity"
	SortByCustomerName SortField = "customer_name"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Default paging and range values.
const (
	DefaultPageSize = 10
	DefaultAgeMin   = 0
	DefaultAgeMax   = 200
)

// IntRange is an inclusive integer range. Nil bounds take the filter's default.
type IntRange struct {
	Min *int
	Max *int
}

// DateRange is an inclusive date range over raw date strings.
// An empty or unparseable bound is treated as unbounded on that side.
type DateRange struct {
	From string
	To   string
}

// Criteria is the combined search, filter, sort and page request.
type Criteria struct {
	Search string

	// Set filters: a record passes if its value is any member of the set.
	Regions        []string
	Genders        []string
	Categories     []string
	PaymentMethods []string

	// Tags must ALL be present on the record.
	Tags []string

	AgeRange  *IntRange
	DateRange *DateRange

	SortBy  SortField
	SortDir SortDirection

	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1"`
}

// WithDefaults fills unset sort and paging fields and normalises the rest.
// SortBy defaults to date. Any direction other than asc, in any case, means
// descending. A zero page size takes DefaultPageSize; negative paging
// values clamp to 1.
func (c Criteria) WithDefaults() Criteria {
	if c.SortBy == "" {
		c.SortBy = SortByDate
	}
	if strings.EqualFold(string(c.SortDir), string(SortAsc)) {
		c.SortDir = SortAsc
	} else {
		c.SortDir = SortDesc
	}
	c.Page = max(c.Page, 1)
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	c.PageSize = max(c.PageSize, 1)
	return c
}

// PageMeta describes where a ResultPage sits in the full result set.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// ResultPage is one page of matching records plus pagination metadata.
type ResultPage struct {
	Meta PageMeta `json:"meta"`
	Data []Record `json:"data"`
}

// FilterOptions holds the distinct values available for each filterable field.
type FilterOptions struct {
	CustomerRegions   []string `json:"customerRegions"`
	Genders           []string `json:"genders"`
	ProductCategories []string `json:"productCategories"`
	Tags              []string `json:"tags"`
	PaymentMethods    []string `json:"paymentMethods"`
}

// Store is the record collection the service reads from and appends to.
// Implementations must return records in insertion order.
type Store interface {
	Append(ctx context.Context, records []Record) error
	All(ctx context.Context) ([]Record, error)
}

// OptionsSource is implemented by stores that can compute filter options
// without handing every record back to the caller.
type OptionsSource interface {
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}

// Pinger is implemented by stores backed by a remote or file resource.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Archiver keeps a copy of each uploaded file. It returns the key the copy
// was stored under.
type Archiver interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ImportResult summarises a CSV import.
type ImportResult struct {
	FileName   string `json:"fileName"`
	Parsed     int    `json:"parsed"`
	Inserted   int    `json:"inserted"`
	Batches    int    `json:"batches"`
	ArchiveKey string `json:"archiveKey,omitempty"`
	DurationMS int64  `json:"durationMs"`
}
