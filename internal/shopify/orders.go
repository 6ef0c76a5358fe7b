package shopify

import (
	"context"
	"fmt"

	"github.com/ordersheet/backend/internal/importer"
)

// Submitter adapts a Client to the importer's OrderCreator boundary.
type Submitter struct {
	Client *Client
}

type draftOrderCreateData struct {
	DraftOrderCreate struct {
		DraftOrder struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"draftOrder"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"draftOrderCreate"`
}

type draftOrderCompleteData struct {
	DraftOrderComplete struct {
		DraftOrder struct {
			ID    string `json:"id"`
			Order struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"order"`
		} `json:"draftOrder"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"draftOrderComplete"`
}

// CreateOrder creates one order from a draft: draftOrderCreate followed by
// draftOrderComplete. Any transport error, top-level GraphQL error or
// userError fails the draft with the platform's message.
func (s *Submitter) CreateOrder(ctx context.Context, d importer.OrderDraft) (string, string, error) {
	input := DraftOrderFromImport(d)

	createRes, _, err := PostGraphQL[draftOrderCreateData](ctx, s.Client, DraftOrderCreateMutation, map[string]any{
		"input": input,
	})
	if err != nil {
		return "", "", fmt.Errorf("draftOrderCreate: %w", err)
	}
	if err := topLevelError(createRes.Errors); err != nil {
		return "", "", fmt.Errorf("draftOrderCreate: %w", err)
	}
	if err := userErrorsError(createRes.Data.DraftOrderCreate.UserErrors); err != nil {
		return "", "", err
	}

	draftID := createRes.Data.DraftOrderCreate.DraftOrder.ID
	if draftID == "" {
		return "", "", fmt.Errorf("draftOrderCreate returned no draft order id")
	}

	completeRes, _, err := PostGraphQL[draftOrderCompleteData](ctx, s.Client, DraftOrderCompleteMutation, map[string]any{
		"id": draftID,
	})
	if err != nil {
		return "", "", fmt.Errorf("draftOrderComplete: %w", err)
	}
	if err := topLevelError(completeRes.Errors); err != nil {
		return "", "", fmt.Errorf("draftOrderComplete: %w", err)
	}
	if err := userErrorsError(completeRes.Data.DraftOrderComplete.UserErrors); err != nil {
		return "", "", err
	}

	order := completeRes.Data.DraftOrderComplete.DraftOrder.Order
	return order.ID, order.Name, nil
}

// DraftOrderFromImport maps a grouped draft onto the mutation input. Drafts
// always carry email; customer lookup is not used.
func DraftOrderFromImport(d importer.OrderDraft) DraftOrderInput {
	input := DraftOrderInput{
		Tags: d.Tags,
	}
	if d.Email != "" {
		input.Email = strPtr(d.Email)
	}
	if d.Note != "" {
		input.Note = strPtr(d.Note)
	}
	if d.Currency != "" {
		input.PresentmentCurrencyCode = strPtr(d.Currency)
	}
	if d.Address != nil {
		input.ShippingAddress = addressInput(d.Address)
	}

	for _, it := range d.Items {
		line := DraftOrderLineItemInput{Quantity: it.Quantity}
		if it.VariantID != "" {
			line.VariantID = strPtr(it.VariantID)
		} else {
			line.Title = strPtr(it.Title)
			line.OriginalUnitPrice = strPtr(it.Price)
		}
		input.LineItems = append(input.LineItems, line)
	}

	return input
}

func addressInput(a *importer.Address) *DraftOrderAddressInput {
	out := &DraftOrderAddressInput{
		FirstName: a.FirstName,
		Address1:  a.Address1,
		City:      a.City,
		Zip:       a.Zip,
		Country:   a.Country,
	}
	if a.LastName != "" {
		out.LastName = strPtr(a.LastName)
	}
	if a.Address2 != "" {
		out.Address2 = strPtr(a.Address2)
	}
	if a.Province != "" {
		out.Province = strPtr(a.Province)
	}
	if a.Phone != "" {
		out.Phone = strPtr(a.Phone)
	}
	return out
}

func strPtr(s string) *string { return &s }
