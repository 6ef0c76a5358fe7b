// Package report generates the shipping-report and tracking-export CSVs from
// remote order query results.
package report

import (
	"bytes"
	"strings"

	"github.com/ordersheet/backend/internal/csvio"
	"github.com/ordersheet/backend/internal/shopify"
)

// ShippingHeaders is the fixed column set of the shipping report.
var ShippingHeaders = []string{
	"order_name", "order_id", "created_at", "email",
	"recipient", "address1", "address2", "city", "province", "zip",
	"country", "phone", "fulfillment_status", "tags",
}

// TrackingHeaders is the fixed column set of the tracking export.
var TrackingHeaders = []string{
	"order_name", "order_id", "email", "fulfillment_status",
	"tracking_company", "tracking_number", "tracking_url",
}

// ShippingCSV renders one row per order.
func ShippingCSV(orders []shopify.OrderReport) ([]byte, error) {
	rows := [][]string{ShippingHeaders}

	for _, o := range orders {
		addr := o.ShippingAddress
		if addr == nil {
			addr = &shopify.ReportAddress{}
		}
		rows = append(rows, []string{
			cell(o.Name),
			cell(o.ID),
			cell(o.CreatedAt),
			cell(o.Email),
			cell(strings.TrimSpace(addr.FirstName + " " + addr.LastName)),
			cell(addr.Address1),
			cell(addr.Address2),
			cell(addr.City),
			cell(addr.Province),
			cell(addr.Zip),
			cell(addr.Country),
			cell(addr.Phone),
			cell(o.FulfillmentStatus),
			cell(strings.Join(o.Tags, ", ")),
		})
	}

	return render(rows)
}

// TrackingCSV renders one row per tracking record: an order with several
// fulfillments yields several rows, an order with none yields one row with
// empty tracking cells.
func TrackingCSV(orders []shopify.OrderReport) ([]byte, error) {
	rows := [][]string{TrackingHeaders}

	for _, o := range orders {
		var tracks []shopify.TrackingInfo
		for _, f := range o.Fulfillments {
			tracks = append(tracks, f.TrackingInfo...)
		}
		if len(tracks) == 0 {
			tracks = []shopify.TrackingInfo{{}}
		}

		for _, t := range tracks {
			rows = append(rows, []string{
				cell(o.Name),
				cell(o.ID),
				cell(o.Email),
				cell(o.FulfillmentStatus),
				cell(t.Company),
				cell(t.Number),
				cell(t.URL),
			})
		}
	}

	return render(rows)
}

func render(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := csvio.WriteAll(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cell flattens embedded newlines to spaces so the written file round-trips
// exactly.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
