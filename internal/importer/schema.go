// Package importer implements the CSV-to-order pipeline: parse and validate
// rows against a schema, group them into order drafts, and submit drafts
// sequentially. All stages are pure transforms over in-memory data; HTTP
// state is a projection over their results.
package importer

import "fmt"

// Import variants. Each selects a column schema and a line-item strategy.
const (
	VariantOrders    = "orders"    // variant_id + quantity rows grouped by order_key
	VariantAddresses = "addresses" // one gift order per address row
)

// Schema declares the required/optional columns and line-item construction
// strategy for one import variant. One shared pipeline is parameterized by
// this value; there is no per-route duplication.
type Schema struct {
	Variant  string
	Required []string
	Optional []string

	// Gift line placeholder used by the addresses variant.
	GiftTitle string
	GiftPrice string

	// Applied when a shipping address is present but has no country.
	DefaultCountry string
}

// SchemaOptions carry the configurable defaults into a schema.
type SchemaOptions struct {
	GiftTitle      string
	GiftPrice      string
	DefaultCountry string
}

// SchemaFor returns the built-in schema for a variant name.
func SchemaFor(variant string, opts SchemaOptions) (Schema, error) {
	if opts.GiftTitle == "" {
		opts.GiftTitle = "Gift Package"
	}
	if opts.GiftPrice == "" {
		opts.GiftPrice = "0.00"
	}
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = "US"
	}

	switch variant {
	case VariantOrders:
		return Schema{
			Variant:  VariantOrders,
			Required: []string{"order_key", "email", "variant_id", "quantity"},
			Optional: []string{
				"currency", "note", "tags",
				"first_name", "last_name", "address", "address2",
				"city", "state", "zip_code", "country", "phone",
			},
			GiftTitle:      opts.GiftTitle,
			GiftPrice:      opts.GiftPrice,
			DefaultCountry: opts.DefaultCountry,
		}, nil
	case VariantAddresses:
		return Schema{
			Variant:  VariantAddresses,
			Required: []string{"first_name", "last_name", "address", "city", "state", "zip_code"},
			Optional: []string{
				"address2", "email", "note", "tags", "quantity", "country", "phone",
			},
			GiftTitle:      opts.GiftTitle,
			GiftPrice:      opts.GiftPrice,
			DefaultCountry: opts.DefaultCountry,
		}, nil
	default:
		return Schema{}, fmt.Errorf("unknown import variant %q", variant)
	}
}

// Columns returns the header order used by templates: required first.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Required)+len(s.Optional))
	cols = append(cols, s.Required...)
	cols = append(cols, s.Optional...)
	return cols
}

// HasColumn reports whether name is a known schema column.
func (s Schema) HasColumn(name string) bool {
	for _, c := range s.Columns() {
		if c == name {
			return true
		}
	}
	return false
}

// ExampleRow returns one illustrative data row matching Columns().
func (s Schema) ExampleRow() []string {
	example := map[string]string{
		"order_key":  "1001",
		"email":      "jane@example.com",
		"variant_id": "41558875241568",
		"quantity":   "2",
		"currency":   "USD",
		"note":       "Leave at front door",
		"tags":       "bulk-import|vip",
		"first_name": "Jane",
		"last_name":  "Doe",
		"address":    "120 Main St",
		"address2":   "Apt 4",
		"city":       "Austin",
		"state":      "TX",
		"zip_code":   "78701",
		"country":    s.DefaultCountry,
		"phone":      "+1 512 555 0147",
	}

	row := make([]string, 0, len(s.Required)+len(s.Optional))
	for _, c := range s.Columns() {
		row = append(row, example[c])
	}
	return row
}
