package validation

import "testing"

func TestRegisterShopRequest(t *testing.T) {
	v := New()

	ok := RegisterShopRequest{
		Shop:        "demo.myshopify.com",
		AccessToken: "shpat_0123456789abcdef",
	}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	bad := []RegisterShopRequest{
		{Shop: "", AccessToken: "shpat_0123456789abcdef"},
		{Shop: "demo.example.com", AccessToken: "shpat_0123456789abcdef"},
		{Shop: "demo.myshopify.com", AccessToken: ""},
		{Shop: "demo.myshopify.com", AccessToken: "short"},
	}
	for i, req := range bad {
		if err := v.Struct(req); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, req)
		}
	}
}

func TestCreateSubmissionRequest(t *testing.T) {
	v := New()

	ok := CreateSubmissionRequest{Shop: "demo.myshopify.com", UploadID: "u-1"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	if err := v.Struct(CreateSubmissionRequest{Shop: "demo.myshopify.com"}); err == nil {
		t.Fatal("missing upload_id must fail")
	}
	if err := v.Struct(CreateSubmissionRequest{Shop: "bad-domain", UploadID: "u-1"}); err == nil {
		t.Fatal("invalid shop domain must fail")
	}
}

func TestMappingSuggestRequest(t *testing.T) {
	v := New()

	ok := MappingSuggestRequest{Variant: "orders", Headers: []string{"Order Number"}}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	if err := v.Struct(MappingSuggestRequest{Variant: "unknown", Headers: []string{"a"}}); err == nil {
		t.Fatal("unknown variant must fail")
	}
	if err := v.Struct(MappingSuggestRequest{Variant: "orders"}); err == nil {
		t.Fatal("empty headers must fail")
	}
	if err := v.Struct(MappingSuggestRequest{Variant: "addresses", Headers: []string{""}}); err == nil {
		t.Fatal("blank header entry must fail")
	}
}

func TestAlertsRequest(t *testing.T) {
	v := New()

	if err := v.Struct(AlertsRequest{Email: "merchant@example.com"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := v.Struct(AlertsRequest{Email: "not-an-email"}); err == nil {
		t.Fatal("invalid email must fail")
	}
}
