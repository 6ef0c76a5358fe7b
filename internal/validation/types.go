package validation

// RegisterShopRequest is the payload for POST /api/shops.
type RegisterShopRequest struct {
	Shop        string `json:"shop" validate:"required,shop_domain"`
	AccessToken string `json:"access_token" validate:"required"`
	APIVersion  string `json:"api_version,omitempty"`
}

// CreateSubmissionRequest is the payload for POST /api/submissions. When
// Async is true the run is queued instead of executed inline.
type CreateSubmissionRequest struct {
	Shop     string `json:"shop" validate:"required,shop_domain"`
	UploadID string `json:"upload_id" validate:"required"`
	Async    bool   `json:"async,omitempty"`
}

// MappingSuggestRequest is the payload for POST /api/mapping/suggest.
type MappingSuggestRequest struct {
	Variant string   `json:"variant" validate:"required,oneof=orders addresses"`
	Headers []string `json:"headers" validate:"required,min=1,dive,required"`
}

// AlertsRequest is the payload for POST /api/shops/:shop/alerts.
type AlertsRequest struct {
	Email string `json:"email" validate:"required,email"`
}
