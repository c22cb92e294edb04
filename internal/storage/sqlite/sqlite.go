// Package sqlite stores sales records in a single SQLite file through gorm.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/salesview/internal/core"
)

// createBatchSize keeps each INSERT under SQLite's bound-parameter limit.
const createBatchSize = 500

// salesModel is the table row. Seq preserves insertion order.
type salesModel struct {
	Seq       uint      `gorm:"primaryKey;autoIncrement"`
	RecordID  string    `gorm:"column:record_id;type:varchar(64);index;not null"`
	CreatedAt time.Time `gorm:"not null"`

	CustomerID     string `gorm:"not null"`
	CustomerName   string
	PhoneNumber    string
	Gender         string `gorm:"index"`
	Age            *int
	CustomerRegion string `gorm:"index"`
	CustomerType   string

	ProductID       string `gorm:"not null"`
	ProductName     string
	Brand           string
	ProductCategory string `gorm:"index"`
	Tags            string

	Quantity           int
	PricePerUnit       decimal.Decimal `gorm:"type:text"`
	DiscountPercentage decimal.Decimal `gorm:"type:text"`
	TotalAmount        decimal.Decimal `gorm:"type:text"`
	FinalAmount        decimal.Decimal `gorm:"type:text"`

	Date          string
	PaymentMethod string `gorm:"index"`
	OrderStatus   string
	DeliveryType  string
	StoreID       string
	StoreLocation string
	SalespersonID string
	EmployeeName  string
}

func (salesModel) TableName() string {
	return "sales_records"
}

// Store is a SQLite-backed record store.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&salesModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Append inserts records in one transaction.
func (s *Store) Append(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]salesModel, len(records))
	for i := range records {
		models[i] = toModel(&records[i])
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, createBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("insert sales records: %w", err)
	}
	return nil
}

// All returns every record in insertion order.
func (s *Store) All(ctx context.Context) ([]core.Record, error) {
	var models []salesModel
	if err := s.db.WithContext(ctx).Order("seq").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}

	records := make([]core.Record, len(models))
	for i := range models {
		records[i] = models[i].toRecord()
	}
	return records, nil
}

// FilterOptions plucks distinct values per column. Tags are split in Go
// because SQLite has no string_to_array.
func (s *Store) FilterOptions(ctx context.Context) (*core.FilterOptions, error) {
	var opts core.FilterOptions

	for _, q := range []struct {
		column string
		dest   *[]string
	}{
		{"customer_region", &opts.CustomerRegions},
		{"gender", &opts.Genders},
		{"product_category", &opts.ProductCategories},
		{"payment_method", &opts.PaymentMethods},
	} {
		err := s.db.WithContext(ctx).Model(&salesModel{}).
			Where(q.column + " <> ''").
			Distinct().
			Order(q.column).
			Pluck(q.column, q.dest).Error
		if err != nil {
			return nil, fmt.Errorf("distinct %s: %w", q.column, err)
		}
	}

	var rawTags []string
	err := s.db.WithContext(ctx).Model(&salesModel{}).
		Where("tags <> ''").
		Distinct().
		Pluck("tags", &rawTags).Error
	if err != nil {
		return nil, fmt.Errorf("distinct tags: %w", err)
	}
	for _, raw := range rawTags {
		opts.Tags = append(opts.Tags, core.SplitTags(raw)...)
	}

	return &opts, nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(r *core.Record) salesModel {
	return salesModel{
		RecordID:           r.ID,
		CreatedAt:          r.CreatedAt,
		CustomerID:         r.CustomerID,
		CustomerName:       r.CustomerName,
		PhoneNumber:        r.PhoneNumber,
		Gender:             r.Gender,
		Age:                r.Age,
		CustomerRegion:     r.CustomerRegion,
		CustomerType:       r.CustomerType,
		ProductID:          r.ProductID,
		ProductName:        r.ProductName,
		Brand:              r.Brand,
		ProductCategory:    r.ProductCategory,
		Tags:               r.Tags,
		Quantity:           r.Quantity,
		PricePerUnit:       r.PricePerUnit,
		DiscountPercentage: r.DiscountPercentage,
		TotalAmount:        r.TotalAmount,
		FinalAmount:        r.FinalAmount,
		Date:               r.Date,
		PaymentMethod:      r.PaymentMethod,
		OrderStatus:        r.OrderStatus,
		DeliveryType:       r.DeliveryType,
		StoreID:            r.StoreID,
		StoreLocation:      r.StoreLocation,
		SalespersonID:      r.SalespersonID,
		EmployeeName:       r.EmployeeName,
	}
}

func (m *salesModel) toRecord() core.Record {
	return core.Record{
		ID:                 m.RecordID,
		CreatedAt:          m.CreatedAt.UTC(),
		CustomerID:         m.CustomerID,
		CustomerName:       m.CustomerName,
		PhoneNumber:        m.PhoneNumber,
		Gender:             m.Gender,
		Age:                m.Age,
		CustomerRegion:     m.CustomerRegion,
		CustomerType:       m.CustomerType,
		ProductID:          m.ProductID,
		ProductName:        m.ProductName,
		Brand:              m.Brand,
		ProductCategory:    m.ProductCategory,
		Tags:               m.Tags,
		Quantity:           m.Quantity,
		PricePerUnit:       m.PricePerUnit,
		DiscountPercentage: m.DiscountPercentage,
		TotalAmount:        m.TotalAmount,
		FinalAmount:        m.FinalAmount,
		Date:               m.Date,
		PaymentMethod:      m.PaymentMethod,
		OrderStatus:        m.OrderStatus,
		DeliveryType:       m.DeliveryType,
		StoreID:            m.StoreID,
		StoreLocation:      m.StoreLocation,
		SalespersonID:      m.SalespersonID,
		EmployeeName:       m.EmployeeName,
	}
}
