package db

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testShop = "demo.myshopify.com"

func TestClaim_DuplicateReturnsErrAlreadyClaimed(t *testing.T) {
	mock := newMemoryDDB()
	s := NewImportStore(mock, "imports-table")

	ctx := context.Background()

	if err := s.Claim(ctx, testShop, "upload:u-1", "sub-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	err := s.Claim(ctx, testShop, "upload:u-1", "sub-2")
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second claim: want ErrAlreadyClaimed, got %v", err)
	}

	// the stored claim still points at the first submission
	id, err := s.ClaimedSubmissionID(ctx, testShop, "upload:u-1")
	if err != nil {
		t.Fatalf("ClaimedSubmissionID: %v", err)
	}
	if id != "sub-1" {
		t.Fatalf("claimed submission id = %q", id)
	}
}

func TestClaim_DifferentKeysAreIndependent(t *testing.T) {
	mock := newMemoryDDB()
	s := NewImportStore(mock, "imports-table")
	ctx := context.Background()

	if err := s.Claim(ctx, testShop, "upload:u-1", "sub-1"); err != nil {
		t.Fatalf("claim u-1: %v", err)
	}
	if err := s.Claim(ctx, testShop, "upload:u-2", "sub-2"); err != nil {
		t.Fatalf("claim u-2: %v", err)
	}
	if err := s.Claim(ctx, "other.myshopify.com", "upload:u-1", "sub-3"); err != nil {
		t.Fatalf("same key, different shop: %v", err)
	}
}

func TestClaimedSubmissionID_Missing(t *testing.T) {
	s := NewImportStore(newMemoryDDB(), "imports-table")
	_, err := s.ClaimedSubmissionID(context.Background(), testShop, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	s := NewImportStore(newMemoryDDB(), "imports-table")
	ctx := context.Background()

	in := UploadItem{
		ID:         "u-1",
		Shop:       testShop,
		Variant:    "orders",
		Filename:   "orders.csv",
		FileKey:    "uploads/demo.myshopify.com/u-1/orders.csv",
		RowCount:   10,
		ValidCount: 8,
		ErrorCount: 2,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.PutUpload(ctx, in); err != nil {
		t.Fatalf("PutUpload: %v", err)
	}

	got, err := s.GetUpload(ctx, testShop, "u-1")
	if err != nil {
		t.Fatalf("GetUpload: %v", err)
	}
	if got.Filename != in.Filename || got.ValidCount != 8 || got.FileKey != in.FileKey {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.GetUpload(ctx, testShop, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSubmissionRoundTripSetsMonthKeys(t *testing.T) {
	mock := newMemoryDDB()
	s := NewImportStore(mock, "imports-table")
	ctx := context.Background()

	in := SubmissionItem{
		ID:        "sub-1",
		Shop:      testShop,
		UploadID:  "u-1",
		Status:    StatusQueued,
		CreatedAt: "2026-08-15T12:00:00Z",
	}
	if err := s.PutSubmission(ctx, in); err != nil {
		t.Fatalf("PutSubmission: %v", err)
	}

	got, err := s.GetSubmission(ctx, testShop, "sub-1")
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if got.Status != StatusQueued || got.UploadID != "u-1" {
		t.Fatalf("got %+v", got)
	}
	if got.GSI1PK != "SHOP#demo.myshopify.com#MONTH#2026-08" {
		t.Fatalf("month GSI key = %q", got.GSI1PK)
	}
}

func TestListSubmissions(t *testing.T) {
	s := NewImportStore(newMemoryDDB(), "imports-table")
	ctx := context.Background()

	for _, id := range []string{"sub-a", "sub-b"} {
		if err := s.PutSubmission(ctx, SubmissionItem{
			ID:        id,
			Shop:      testShop,
			UploadID:  "u-1",
			Status:    StatusCompleted,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			t.Fatalf("PutSubmission %s: %v", id, err)
		}
	}
	// an upload record must not leak into the submission listing
	if err := s.PutUpload(ctx, UploadItem{ID: "u-1", Shop: testShop}); err != nil {
		t.Fatalf("PutUpload: %v", err)
	}

	items, _, err := s.ListSubmissions(ctx, testShop, 10, "")
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
}
