package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeCreator struct {
	calls   int
	failKey string
}

func (f *fakeCreator) CreateOrder(_ context.Context, d OrderDraft) (string, string, error) {
	f.calls++
	if d.Key == f.failKey {
		return "", "", errors.New("variant not found")
	}
	return fmt.Sprintf("gid://shopify/Order/%d", f.calls), fmt.Sprintf("#%d", 1000+f.calls), nil
}

func TestSubmit_FanOutAndContinueAfterFailure(t *testing.T) {
	drafts := []OrderDraft{
		{Key: "1001", Rows: []int{2, 3}},
		{Key: "1002", Rows: []int{4}},
		{Key: "1003", Rows: []int{5}},
	}
	rejected := []RowError{{Row: 6, Message: "row 6: order_key is required"}}

	creator := &fakeCreator{failKey: "1002"}
	results := Submit(context.Background(), creator, drafts, rejected)

	if creator.calls != 3 {
		t.Fatalf("one call per draft expected, got %d", creator.calls)
	}
	if len(results) != 5 {
		t.Fatalf("one result per row expected, got %d", len(results))
	}

	// sorted by row number
	for i := 1; i < len(results); i++ {
		if results[i].Row < results[i-1].Row {
			t.Fatalf("results not sorted: %+v", results)
		}
	}

	byRow := map[int]RowResult{}
	for _, r := range results {
		byRow[r.Row] = r
	}

	// both rows of draft 1001 share one order
	if !byRow[2].OK || !byRow[3].OK || byRow[2].OrderID != byRow[3].OrderID {
		t.Fatalf("rows 2/3: %+v %+v", byRow[2], byRow[3])
	}

	// the failed draft's row carries the error verbatim and later drafts
	// still succeeded
	if byRow[4].OK || byRow[4].Message != "variant not found" {
		t.Fatalf("row 4: %+v", byRow[4])
	}
	if !byRow[5].OK {
		t.Fatalf("row 5 should have succeeded after the failure: %+v", byRow[5])
	}

	// rejected rows fold in as failures
	if byRow[6].OK || byRow[6].Message == "" {
		t.Fatalf("row 6: %+v", byRow[6])
	}
}

func TestSubmit_NoDrafts(t *testing.T) {
	creator := &fakeCreator{}
	results := Submit(context.Background(), creator, nil, []RowError{{Row: 2, Message: "bad"}})

	if creator.calls != 0 {
		t.Fatalf("no drafts, no calls; got %d", creator.calls)
	}
	if len(results) != 1 || results[0].OK {
		t.Fatalf("results = %+v", results)
	}
}
