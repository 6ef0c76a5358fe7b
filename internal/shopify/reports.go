package shopify

import (
	"context"
	"fmt"
)

// DefaultReportPageCeiling bounds the report sweep's worst-case latency.
const DefaultReportPageCeiling = 20

// TrackingInfo is one tracking record on a fulfillment.
type TrackingInfo struct {
	Company string `json:"company"`
	Number  string `json:"number"`
	URL     string `json:"url"`
}

// ReportAddress mirrors the shippingAddress selection of the report query.
type ReportAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// Fulfillment carries the tracking records of one fulfillment.
type Fulfillment struct {
	TrackingInfo []TrackingInfo `json:"trackingInfo"`
}

// OrderReport is one order's row material for the shipping/tracking exports.
type OrderReport struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	CreatedAt         string         `json:"createdAt"`
	Email             string         `json:"email"`
	FulfillmentStatus string         `json:"displayFulfillmentStatus"`
	Tags              []string       `json:"tags"`
	ShippingAddress   *ReportAddress `json:"shippingAddress"`
	Fulfillments      []Fulfillment  `json:"fulfillments"`
}

type ordersReportData struct {
	Orders struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Cursor string      `json:"cursor"`
			Node   OrderReport `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

// FetchOrderReports pages orders matching the search query, sequentially and
// bounded by maxPages. Empty result pages are legitimate termination.
func FetchOrderReports(ctx context.Context, c *Client, search string, maxPages, pageSize int) ([]OrderReport, error) {
	if maxPages <= 0 {
		maxPages = DefaultReportPageCeiling
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	var out []OrderReport
	var after *string

	for page := 0; page < maxPages; page++ {
		vars := map[string]any{"first": pageSize}
		if search != "" {
			vars["query"] = search
		}
		if after != nil {
			vars["after"] = *after
		}

		res, _, err := PostGraphQL[ordersReportData](ctx, c, OrdersReportQuery, vars)
		if err != nil {
			return nil, fmt.Errorf("orders report page %d: %w", page+1, err)
		}
		if err := topLevelError(res.Errors); err != nil {
			return nil, fmt.Errorf("orders report page %d: %w", page+1, err)
		}

		for _, e := range res.Data.Orders.Edges {
			out = append(out, e.Node)
		}

		if !res.Data.Orders.PageInfo.HasNextPage || len(res.Data.Orders.Edges) == 0 {
			break
		}
		cursor := res.Data.Orders.PageInfo.EndCursor
		after = &cursor
	}

	return out, nil
}
