package shopify

// OrderTagsQuery sweeps order tags for the autocomplete suggestions.
const OrderTagsQuery = `
query orderTags($first: Int!, $after: String) {
  orders(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      cursor
      node {
        tags
      }
    }
  }
}
`

// OrdersReportQuery pages order + fulfillment tracking data for the exports.
const OrdersReportQuery = `
query ordersReport($first: Int!, $after: String, $query: String) {
  orders(first: $first, after: $after, query: $query) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      cursor
      node {
        id
        name
        createdAt
        email
        displayFulfillmentStatus
        tags
        shippingAddress {
          firstName
          lastName
          address1
          address2
          city
          province
          zip
          country
          phone
        }
        fulfillments {
          trackingInfo {
            company
            number
            url
          }
        }
      }
    }
  }
}
`

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}
