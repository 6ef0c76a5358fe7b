package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// UserError is the per-mutation error shape the Admin API returns.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// Client talks to one shop's Admin GraphQL API.
type Client struct {
	ShopDomain  string
	APIVersion  string
	AccessToken string

	// BaseURL overrides the derived endpoint; tests point it at httptest.
	BaseURL string

	HTTPClient *http.Client
}

func NewClient(shopDomain, apiVersion, accessToken string) *Client {
	return &Client{
		ShopDomain:  shopDomain,
		APIVersion:  apiVersion,
		AccessToken: accessToken,
	}
}

func (c *Client) endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.ShopDomain, c.APIVersion)
}

// PostGraphQL posts one query/mutation and decodes the typed envelope.
func PostGraphQL[T any](ctx context.Context, c *Client, query string, variables any) (*GraphQLResponse[T], int, error) {
	body := map[string]any{
		"query":     query,
		"variables": variables,
	}
	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(b))
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.AccessToken)

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	res, err := hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)

	var out GraphQLResponse[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, res.StatusCode, err
	}

	return &out, res.StatusCode, nil
}

// topLevelError flattens top-level GraphQL errors into one message.
func topLevelError(errs []GraphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// userErrorsError flattens mutation userErrors into one message, verbatim.
func userErrorsError(errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// IsValidShopDomain checks the *.myshopify.com shape merchants register with.
func IsValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return false
	}
	if strings.Contains(shop, "/") || strings.Contains(shop, " ") {
		return false
	}
	return len(shop) >= len("a.myshopify.com")
}
