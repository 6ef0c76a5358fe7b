package importer

import (
	"fmt"
	"strings"
)

// OrderDraft is an in-memory, not-yet-submitted aggregation of one or more
// rows into a single order-creation request.
type OrderDraft struct {
	Key      string
	Rows     []int
	Email    string
	Currency string
	Note     string
	Tags     []string
	Address  *Address
	Items    []LineItem
}

// Group folds validated records into order drafts keyed by their grouping
// key. The first row for a key establishes the draft's shared fields; later
// rows append a line item. A later row whose email differs from the draft's
// is rejected with a conflict error and excluded. Draft order is first-seen
// key order.
func Group(res *ValidationResult) ([]OrderDraft, []RowError) {
	byKey := map[string]int{}
	var drafts []OrderDraft
	var conflicts []RowError

	for _, rec := range res.Valid {
		i, ok := byKey[rec.Key]
		if !ok {
			byKey[rec.Key] = len(drafts)
			drafts = append(drafts, OrderDraft{
				Key:      rec.Key,
				Rows:     []int{rec.Row},
				Email:    rec.Email,
				Currency: rec.Currency,
				Note:     rec.Note,
				Tags:     rec.Tags,
				Address:  rec.Address,
				Items:    []LineItem{rec.Item},
			})
			continue
		}

		if !sameEmail(drafts[i].Email, rec.Email) {
			conflicts = append(conflicts, RowError{
				Row: rec.Row,
				Message: fmt.Sprintf("row %d: email %q does not match email %q already used for order key %q",
					rec.Row, rec.Email, drafts[i].Email, rec.Key),
			})
			continue
		}

		drafts[i].Items = append(drafts[i].Items, rec.Item)
		drafts[i].Rows = append(drafts[i].Rows, rec.Row)
	}

	return drafts, conflicts
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
