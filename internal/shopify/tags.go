package shopify

import (
	"context"
	"fmt"
	"sort"
)

// DefaultTagPageCeiling bounds the suggestion sweep's worst-case latency.
const DefaultTagPageCeiling = 10

type orderTagsData struct {
	Orders struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Cursor string `json:"cursor"`
			Node   struct {
				Tags []string `json:"tags"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

// SuggestTags sweeps recent orders and returns their distinct tags, sorted.
// The loop is sequential, cursor-paginated and bounded by maxPages; an empty
// or partial page terminates it as a legitimate end.
func SuggestTags(ctx context.Context, c *Client, maxPages, pageSize int) ([]string, error) {
	if maxPages <= 0 {
		maxPages = DefaultTagPageCeiling
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	seen := map[string]bool{}
	var tags []string
	var after *string

	for page := 0; page < maxPages; page++ {
		vars := map[string]any{"first": pageSize}
		if after != nil {
			vars["after"] = *after
		}

		res, _, err := PostGraphQL[orderTagsData](ctx, c, OrderTagsQuery, vars)
		if err != nil {
			return nil, fmt.Errorf("orders tags page %d: %w", page+1, err)
		}
		if err := topLevelError(res.Errors); err != nil {
			return nil, fmt.Errorf("orders tags page %d: %w", page+1, err)
		}

		for _, e := range res.Data.Orders.Edges {
			for _, t := range e.Node.Tags {
				if t == "" || seen[t] {
					continue
				}
				seen[t] = true
				tags = append(tags, t)
			}
		}

		if !res.Data.Orders.PageInfo.HasNextPage || len(res.Data.Orders.Edges) == 0 {
			break
		}
		cursor := res.Data.Orders.PageInfo.EndCursor
		after = &cursor
	}

	sort.Strings(tags)
	return tags, nil
}
