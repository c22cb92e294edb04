package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/salesview/internal/core"
)

// toPgText maps the empty string to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgInt8 maps a nil pointer to NULL.
func toPgInt8(i *int) pgtype.Int8 {
	if i == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: int64(*i), Valid: true}
}

// toPgNumeric scans the decimal's exact string form into a pgtype.Numeric.
func toPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("numeric %s: %w", d, err)
	}
	return n, nil
}

// recordValues returns r's values in columns order.
func recordValues(r *core.Record) ([]any, error) {
	amounts := [4]decimal.Decimal{r.PricePerUnit, r.DiscountPercentage, r.TotalAmount, r.FinalAmount}
	var nums [4]pgtype.Numeric
	for i, d := range amounts {
		n, err := toPgNumeric(d)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}

	return []any{
		r.ID, r.CreatedAt,
		r.CustomerID, toPgText(r.CustomerName), toPgText(r.PhoneNumber), toPgText(r.Gender),
		toPgInt8(r.Age), toPgText(r.CustomerRegion), toPgText(r.CustomerType),
		r.ProductID, toPgText(r.ProductName), toPgText(r.Brand), toPgText(r.ProductCategory), toPgText(r.Tags),
		int64(r.Quantity), nums[0], nums[1], nums[2], nums[3],
		toPgText(r.Date), toPgText(r.PaymentMethod), toPgText(r.OrderStatus), toPgText(r.DeliveryType),
		toPgText(r.StoreID), toPgText(r.StoreLocation),
		toPgText(r.SalespersonID), toPgText(r.EmployeeName),
	}, nil
}

// salesRow mirrors selectAll column for column.
type salesRow struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	CustomerID     string      `db:"customer_id"`
	CustomerName   pgtype.Text `db:"customer_name"`
	PhoneNumber    pgtype.Text `db:"phone_number"`
	Gender         pgtype.Text `db:"gender"`
	Age            pgtype.Int8 `db:"age"`
	CustomerRegion pgtype.Text `db:"customer_region"`
	CustomerType   pgtype.Text `db:"customer_type"`

	ProductID       string      `db:"product_id"`
	ProductName     pgtype.Text `db:"product_name"`
	Brand           pgtype.Text `db:"brand"`
	ProductCategory pgtype.Text `db:"product_category"`
	Tags            pgtype.Text `db:"tags"`

	Quantity           int64  `db:"quantity"`
	PricePerUnit       string `db:"price_per_unit"`
	DiscountPercentage string `db:"discount_percentage"`
	TotalAmount        string `db:"total_amount"`
	FinalAmount        string `db:"final_amount"`

	Date          pgtype.Text `db:"date"`
	PaymentMethod pgtype.Text `db:"payment_method"`
	OrderStatus   pgtype.Text `db:"order_status"`
	DeliveryType  pgtype.Text `db:"delivery_type"`
	StoreID       pgtype.Text `db:"store_id"`
	StoreLocation pgtype.Text `db:"store_location"`
	SalespersonID pgtype.Text `db:"salesperson_id"`
	EmployeeName  pgtype.Text `db:"employee_name"`
}

func (row *salesRow) toRecord() (core.Record, error) {
	var amounts [4]decimal.Decimal
	for i, s := range [4]string{row.PricePerUnit, row.DiscountPercentage, row.TotalAmount, row.FinalAmount} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return core.Record{}, fmt.Errorf("record %s: parse numeric %q: %w", row.ID, s, err)
		}
		amounts[i] = d
	}

	var age *int
	if row.Age.Valid {
		n := int(row.Age.Int64)
		age = &n
	}

	return core.Record{
		ID:                 row.ID,
		CreatedAt:          row.CreatedAt.UTC(),
		CustomerID:         row.CustomerID,
		CustomerName:       row.CustomerName.String,
		PhoneNumber:        row.PhoneNumber.String,
		Gender:             row.Gender.String,
		Age:                age,
		CustomerRegion:     row.CustomerRegion.String,
		CustomerType:       row.CustomerType.String,
		ProductID:          row.ProductID,
		ProductName:        row.ProductName.String,
		Brand:              row.Brand.String,
		ProductCategory:    row.ProductCategory.String,
		Tags:               row.Tags.String,
		Quantity:           int(row.Quantity),
		PricePerUnit:       amounts[0],
		DiscountPercentage: amounts[1],
		TotalAmount:        amounts[2],
		FinalAmount:        amounts[3],
		Date:               row.Date.String,
		PaymentMethod:      row.PaymentMethod.String,
		OrderStatus:        row.OrderStatus.String,
		DeliveryType:       row.DeliveryType.String,
		StoreID:            row.StoreID.String,
		StoreLocation:      row.StoreLocation.String,
		SalespersonID:      row.SalespersonID.String,
		EmployeeName:       row.EmployeeName.String,
	}, nil
}
