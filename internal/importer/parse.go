package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ordersheet/backend/internal/csvio"
)

const variantGIDPrefix = "gid://shopify/ProductVariant/"

// RowError carries one human-readable validation message for one data row.
// Row numbers are 1-based counting the header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// LineItem is one product/quantity entry within an order. Either VariantID
// or Title+Price is set, never both.
type LineItem struct {
	VariantID string
	Title     string
	Price     string
	Quantity  int
}

// Address is a shipping address assembled from the optional address columns.
type Address struct {
	FirstName string
	LastName  string
	Address1  string
	Address2  string
	City      string
	Province  string
	Zip       string
	Country   string
	Phone     string
}

// Record is one validated, normalized data row ready for grouping.
type Record struct {
	Row      int
	Key      string
	Email    string
	Currency string
	Note     string
	Tags     []string
	Address  *Address
	Item     LineItem
}

// ValidationResult is the outcome of parsing one upload. Every non-blank
// data row is accounted for exactly once, in Valid or in Errors.
type ValidationResult struct {
	Schema   Schema
	RowCount int
	Valid    []Record
	Errors   []RowError
}

// Parse tokenizes raw CSV text and validates it against the schema.
// Structural problems (no data, missing required columns in the header)
// abort the whole parse; row-level problems isolate that row.
func Parse(text string, schema Schema) (*ValidationResult, error) {
	rows, err := csvio.ReadAll(text)
	if err != nil {
		return nil, err
	}
	return ParseRows(rows, schema)
}

// ParseRows runs the same validation over already-tokenized rows. The XLSX
// path enters the pipeline here.
func ParseRows(rows [][]string, schema Schema) (*ValidationResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file contains no rows")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var missing []string
	for _, col := range schema.Required {
		if !contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	res := &ValidationResult{Schema: schema}

	for idx, record := range rows[1:] {
		num := idx + 2 // header is row 1

		fields := map[string]string{}
		for i, v := range record {
			if i < len(header) && header[i] != "" {
				fields[header[i]] = strings.TrimSpace(v)
			}
		}

		res.RowCount++

		rec, errs := buildRecord(num, fields, schema)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Valid = append(res.Valid, rec)
	}

	return res, nil
}

func buildRecord(num int, fields map[string]string, schema Schema) (Record, []RowError) {
	var errs []RowError
	for _, col := range schema.Required {
		if fields[col] == "" {
			errs = append(errs, RowError{Row: num, Message: fmt.Sprintf("row %d: %s is required", num, col)})
		}
	}

	qty := 1
	qtyRaw, qtyPresent := fields["quantity"]
	if qtyRequired(schema) || (qtyPresent && qtyRaw != "") {
		n, err := strconv.Atoi(qtyRaw)
		if err != nil || n <= 0 {
			// the required-column check already covers an empty value
			if qtyRaw != "" {
				errs = append(errs, RowError{Row: num, Message: fmt.Sprintf("row %d: quantity %q must be a positive integer", num, qtyRaw)})
			}
		} else {
			qty = n
		}
	}

	if len(errs) > 0 {
		return Record{}, errs
	}

	rec := Record{
		Row:      num,
		Email:    fields["email"],
		Currency: strings.ToUpper(fields["currency"]),
		Note:     fields["note"],
		Tags:     NormalizeTags(fields["tags"]),
		Address:  buildAddress(fields, schema.DefaultCountry),
	}

	switch schema.Variant {
	case VariantAddresses:
		rec.Key = fmt.Sprintf("row-%d", num)
		rec.Item = LineItem{Title: schema.GiftTitle, Price: schema.GiftPrice, Quantity: qty}
	default:
		rec.Key = fields["order_key"]
		rec.Item = LineItem{VariantID: NormalizeVariantID(fields["variant_id"]), Quantity: qty}
	}

	return rec, nil
}

func qtyRequired(schema Schema) bool {
	return contains(schema.Required, "quantity")
}

// NormalizeVariantID rewrites purely numeric variant identifiers into the
// platform's global-id form. Already-prefixed gids pass through unchanged,
// as does anything else (the remote side rejects it with its own message).
func NormalizeVariantID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if allDigits(id) {
		return variantGIDPrefix + id
	}
	return id
}

// NormalizeTags splits a tag list on comma or pipe, trims each entry and
// removes blanks and duplicates, preserving first-seen order.
func NormalizeTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '|'
	})

	seen := map[string]bool{}
	var tags []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		tags = append(tags, p)
	}
	return tags
}

// buildAddress returns nil unless at least one shipping field is non-empty.
func buildAddress(fields map[string]string, defaultCountry string) *Address {
	addr := Address{
		FirstName: fields["first_name"],
		LastName:  fields["last_name"],
		Address1:  fields["address"],
		Address2:  fields["address2"],
		City:      fields["city"],
		Province:  fields["state"],
		Zip:       fields["zip_code"],
		Country:   fields["country"],
		Phone:     fields["phone"],
	}
	if addr == (Address{}) {
		return nil
	}
	if addr.Country == "" {
		addr.Country = defaultCountry
	}
	return &addr
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
