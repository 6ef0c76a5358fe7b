package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ordersheet/backend/internal/csvio"
	"github.com/ordersheet/backend/internal/shopify"
)

func sampleOrders() []shopify.OrderReport {
	return []shopify.OrderReport{
		{
			ID:                "gid://shopify/Order/1",
			Name:              "#1001",
			Email:             "jane@example.com",
			CreatedAt:         "2026-08-01T10:00:00Z",
			FulfillmentStatus: "FULFILLED",
			Tags:              []string{"vip", "bulk-import"},
			ShippingAddress: &shopify.ReportAddress{
				FirstName: "Jane", LastName: "Doe",
				Address1: "120 Main St", City: "Austin",
				Province: "TX", Zip: "78701", Country: "United States",
			},
			Fulfillments: []shopify.Fulfillment{
				{TrackingInfo: []shopify.TrackingInfo{
					{Company: "UPS", Number: "1Z999", URL: "https://ups.example/1Z999"},
					{Company: "UPS", Number: "1Z998", URL: "https://ups.example/1Z998"},
				}},
			},
		},
		{
			ID:    "gid://shopify/Order/2",
			Name:  "#1002",
			Email: "bob@example.com",
		},
	}
}

func TestShippingCSV(t *testing.T) {
	data, err := ShippingCSV(sampleOrders())
	require.NoError(t, err)

	rows, err := csvio.ReadAll(string(data))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, ShippingHeaders, rows[0])

	require.Equal(t, "#1001", rows[1][0])
	require.Equal(t, "Jane Doe", rows[1][4])
	require.Equal(t, "vip, bulk-import", rows[1][13])

	// order without an address still yields a complete row
	require.Len(t, rows[2], len(ShippingHeaders))
	require.Equal(t, "", rows[2][4])
}

func TestTrackingCSV_OneRowPerTrackingRecord(t *testing.T) {
	data, err := TrackingCSV(sampleOrders())
	require.NoError(t, err)

	rows, err := csvio.ReadAll(string(data))
	require.NoError(t, err)
	// header + two tracking rows for #1001 + one empty row for #1002
	require.Len(t, rows, 4)
	require.Equal(t, TrackingHeaders, rows[0])

	require.Equal(t, "1Z999", rows[1][5])
	require.Equal(t, "1Z998", rows[2][5])

	require.Equal(t, "#1002", rows[3][0])
	require.Equal(t, "", rows[3][4])
	require.Equal(t, "", rows[3][5])
}

func TestCSV_FlattensEmbeddedNewlines(t *testing.T) {
	orders := []shopify.OrderReport{{
		Name: "#1003",
		ShippingAddress: &shopify.ReportAddress{
			Address1: "line one\nline two",
			City:     "carriage\r\nreturn",
		},
	}}

	data, err := ShippingCSV(orders)
	require.NoError(t, err)

	rows, err := csvio.ReadAll(string(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "line one line two", rows[1][5])
	require.Equal(t, "carriage return", rows[1][7])
}
