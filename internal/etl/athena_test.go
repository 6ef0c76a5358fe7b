package etl

import "testing"

func TestShapeResult_Scalar(t *testing.T) {
	out := ShapeResult([]string{"orders_created"}, []map[string]any{{"orders_created": int64(12)}})
	if out["kind"] != "scalar" {
		t.Fatalf("kind = %v", out["kind"])
	}
	if out["value"] != int64(12) {
		t.Fatalf("value = %v", out["value"])
	}
}

func TestShapeResult_Table(t *testing.T) {
	rows := []map[string]any{
		{"dt": "2026-08-01", "orders_created": int64(3)},
		{"dt": "2026-08-02", "orders_created": int64(5)},
	}
	out := ShapeResult([]string{"dt", "orders_created"}, rows)
	if out["kind"] != "table" {
		t.Fatalf("kind = %v", out["kind"])
	}
	if _, ok := out["value"]; ok {
		t.Fatal("table shape must not carry a scalar value")
	}
}

func TestCoerceScalar(t *testing.T) {
	if v := coerceScalar("12"); v != int64(12) {
		t.Fatalf("int: %v (%T)", v, v)
	}
	if v := coerceScalar("1.5"); v != 1.5 {
		t.Fatalf("float: %v", v)
	}
	if v := coerceScalar("abc"); v != "abc" {
		t.Fatalf("string: %v", v)
	}
	if v := coerceScalar("  "); v != nil {
		t.Fatalf("blank: %v", v)
	}
}

func TestTableSchemaSelectList(t *testing.T) {
	s := &TableSchema{Columns: []Column{
		{Name: "orders_created", Type: "bigint"},
		{Name: "rows_failed", Type: "bigint"},
	}}
	if got := s.SelectList(); got != "orders_created, rows_failed" {
		t.Fatalf("SelectList = %q", got)
	}
}
