package core

// convert.go maps CSV headers onto Record fields and coerces cell text.
//
// Coercion never fails. Numbers take their longest valid leading prefix
// ("35 years" is 35, "9.99 USD" is 9.99) and fall back to zero, so a sloppy
// cell degrades the field instead of dropping the row.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	leadingIntRegex     = regexp.MustCompile(`^[+-]?\d+`)
	leadingDecimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// fieldSetter assigns a non-empty, cleaned cell to its Record field.
type fieldSetter func(r *Record, v string)

// headerFields is the fixed header dictionary, keyed by lowercased header.
// Columns not listed here are ignored on every row.
var headerFields = map[string]fieldSetter{
	"customer id":     func(r *Record, v string) { r.CustomerID = v },
	"customer name":   func(r *Record, v string) { r.CustomerName = v },
	"phone number":    func(r *Record, v string) { r.PhoneNumber = v },
	"gender":          func(r *Record, v string) { r.Gender = v },
	"age":             func(r *Record, v string) { n := ParseLeadingInt(v); r.Age = &n },
	"customer region": func(r *Record, v string) { r.CustomerRegion = v },
	"customer type":   func(r *Record, v string) { r.CustomerType = v },

	"product id":       func(r *Record, v string) { r.ProductID = v },
	"product name":     func(r *Record, v string) { r.ProductName = v },
	"brand":            func(r *Record, v string) { r.Brand = v },
	"product category": func(r *Record, v string) { r.ProductCategory = v },
	"tags":             func(r *Record, v string) { r.Tags = v },

	"quantity":            func(r *Record, v string) { r.Quantity = ParseLeadingInt(v) },
	"price per unit":      func(r *Record, v string) { r.PricePerUnit = ParseLeadingDecimal(v) },
	"discount percentage": func(r *Record, v string) { r.DiscountPercentage = ParseLeadingDecimal(v) },
	"total amount":        func(r *Record, v string) { r.TotalAmount = ParseLeadingDecimal(v) },
	"final amount":        func(r *Record, v string) { r.FinalAmount = ParseLeadingDecimal(v) },

	"date":           func(r *Record, v string) { r.Date = v },
	"payment method": func(r *Record, v string) { r.PaymentMethod = v },
	"order status":   func(r *Record, v string) { r.OrderStatus = v },
	"delivery type":  func(r *Record, v string) { r.DeliveryType = v },
	"store id":       func(r *Record, v string) { r.StoreID = v },
	"store location": func(r *Record, v string) { r.StoreLocation = v },
	"salesperson id": func(r *Record, v string) { r.SalespersonID = v },
	"employee name":  func(r *Record, v string) { r.EmployeeName = v },
}

// CSVHeaders lists the recognised columns in export order.
var CSVHeaders = []string{
	"Customer ID", "Customer Name", "Phone Number", "Gender", "Age",
	"Customer Region", "Customer Type", "Product ID", "Product Name", "Brand",
	"Product Category", "Tags", "Quantity", "Price per Unit", "Discount Percentage",
	"Total Amount", "Final Amount", "Date", "Payment Method", "Order Status",
	"Delivery Type", "Store ID", "Store Location", "Salesperson ID", "Employee Name",
}

// lookupHeader returns the setter for a header cell, or nil if unrecognised.
func lookupHeader(h string) fieldSetter {
	return headerFields[strings.ToLower(CleanCell(h))]
}

// CleanCell trims whitespace and strips one pair of surrounding double quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// ParseLeadingInt parses the integer prefix of s. Returns 0 if there is none.
func ParseLeadingInt(s string) int {
	m := leadingIntRegex.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ParseLeadingDecimal parses the decimal prefix of s. Returns zero if there is none.
func ParseLeadingDecimal(s string) decimal.Decimal {
	m := leadingDecimalRegex.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}
