package dto

import "time"

// saleStartLayout is the zoneless seconds-precision form the backend
// expects on listing creation. The wall-clock time is local.
const saleStartLayout = "2006-01-02T15:04:05"

// FormatSaleStart renders a sale start time the way the backend expects
// it on listing creation.
func FormatSaleStart(t time.Time) string {
	return t.Format(saleStartLayout)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the successful reply to POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// OrderRequest is the body of POST /orders/create and
// POST /orders/create-limited.
type OrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ListingForm is the "dto" JSON part of the multipart body sent to
// POST /products/create.
type ListingForm struct {
	Name        string `json:"name"`
	ArtistName  string `json:"artistName"`
	Price       int64  `json:"price"`
	Year        int    `json:"year"`
	Condition   string `json:"condition"`
	IsLimited   bool   `json:"isLimited"`
	Stock       int    `json:"stock"`
	SaleStartAt string `json:"saleStartAt,omitempty"`
}

// ErrorResponse is the backend's error body. Message may be empty.
type ErrorResponse struct {
	Message string `json:"message"`
}
