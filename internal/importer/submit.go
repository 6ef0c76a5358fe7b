package importer

import (
	"context"
	"sort"
)

// RowResult is one row's outcome after submission, ordered by original row
// number for display.
type RowResult struct {
	Row       int    `json:"row"`
	OK        bool   `json:"ok"`
	OrderID   string `json:"order_id,omitempty"`
	OrderName string `json:"order_name,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OrderCreator is the remote collaborator boundary. One call per draft.
type OrderCreator interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (orderID, orderName string, err error)
}

// Submit issues one order-creation call per draft, strictly in sequence, and
// fans each draft's outcome back out to every originating row. A failed call
// marks the draft's rows failed and processing continues with the remaining
// drafts; nothing is retried. Rows rejected before submission (validation or
// grouping errors) are folded in as failures so the caller gets one result
// per row, sorted by row number.
func Submit(ctx context.Context, creator OrderCreator, drafts []OrderDraft, rejected []RowError) []RowResult {
	var results []RowResult

	for _, e := range rejected {
		results = append(results, RowResult{Row: e.Row, Message: e.Message})
	}

	for _, d := range drafts {
		id, name, err := creator.CreateOrder(ctx, d)
		for _, row := range d.Rows {
			if err != nil {
				results = append(results, RowResult{Row: row, Message: err.Error()})
				continue
			}
			results = append(results, RowResult{Row: row, OK: true, OrderID: id, OrderName: name})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Row < results[j].Row })
	return results
}
