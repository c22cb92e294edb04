package core

import (
	"bytes"
	"fmt"
	"testing"
)

// ============================================================================
// CSV Parsing Benchmarks
// ============================================================================

func BenchmarkParseCSV(b *testing.B) {
	data := string(generateTestCSV(100))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseCSV(data)
	}
}

func BenchmarkParseCSV_Large(b *testing.B) {
	data := string(generateTestCSV(10000))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseCSV(data)
	}
}

func BenchmarkParseCSVReader_BOM(b *testing.B) {
	data := append([]byte("\ufeff"), generateTestCSV(1000)...)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseCSVReader(bytes.NewReader(data))
	}
}

func BenchmarkSplitLine(b *testing.B) {
	line := `C1001,"Doe, John",+91 9876543210,Male,35,North,Loyal,P2001,Phone,Acme,Electronics,"gadget,sale",2,499.99,10,999.98,899.98,2023-05-14,UPI,Completed,Standard,S1,Mumbai,E1,Ravi`

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		splitLine(line)
	}
}

// ============================================================================
// Query Benchmarks
// ============================================================================

func BenchmarkQuery(b *testing.B) {
	records := ParseCSV(string(generateTestCSV(10000)))

	cases := []struct {
		name string
		c    Criteria
	}{
		{"default", Criteria{}.WithDefaults()},
		{"search", Criteria{Search: "doe"}.WithDefaults()},
		{"filtered", Criteria{
			Regions:   []string{"North", "East"},
			Tags:      []string{"sale"},
			AgeRange:  &IntRange{},
			DateRange: &DateRange{From: "2023-01-01", To: "31-12-2023"},
		}.WithDefaults()},
		{"sort by name", Criteria{SortBy: SortByCustomerName, SortDir: SortAsc}.WithDefaults()},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Query(records, tc.c)
			}
		})
	}
}

func BenchmarkParseDate(b *testing.B) {
	inputs := []string{"2023-05-14", "14-05-2023", "14/05/2023", "not a date"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, s := range inputs {
			ParseDate(s)
		}
	}
}

func BenchmarkCollectOptions(b *testing.B) {
	records := ParseCSV(string(generateTestCSV(10000)))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		CollectOptions(records)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates sales CSV data with the specified number of rows.
func generateTestCSV(rows int) []byte {
	regions := []string{"North", "South", "East", "West"}
	tags := []string{`"gadget,sale"`, "sale", "new", ""}

	var buf bytes.Buffer
	buf.WriteString("Customer ID,Customer Name,Phone Number,Age,Customer Region,Product ID,Tags,Quantity,Final Amount,Date\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&buf, "C%d,Customer %d Doe,555-%04d,%d,%s,P%d,%s,%d,%d.50,%02d-%02d-2023\n",
			i, i, i%10000, 18+i%60, regions[i%len(regions)], i%500, tags[i%len(tags)], 1+i%9, 10+i%990, 1+i%28, 1+i%12)
	}
	return buf.Bytes()
}
