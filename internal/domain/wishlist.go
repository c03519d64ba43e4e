package domain

// Metafield is a namespaced key/value attribute on a Shopify customer.
// The wishlist is persisted entirely in two of these.
type Metafield struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Product is the subset of Shopify product fields the wishlist surfaces.
type Product struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Handle           string `json:"handle"`
	OnlineStoreURL   string `json:"onlineStoreUrl"`
	Price            string `json:"price"`
	Currency         string `json:"currency"`
	ImageURL         string `json:"imageUrl"`
	AvailableForSale bool   `json:"availableForSale"`
}

// Customer is the subset of Shopify customer fields exposed by the client.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// WishlistItem is a display-ready wishlist entry: a product joined with
// the timestamp it was added. AddedAt is empty when no timestamp exists
// (item predates timestamp tracking, or the timestamp write failed).
type WishlistItem struct {
	ProductID        string `json:"productId"`
	Title            string `json:"title"`
	Handle           string `json:"handle"`
	Price            string `json:"price"`
	Currency         string `json:"currency"`
	ImageURL         string `json:"imageUrl"`
	URL              string `json:"url"`
	AvailableForSale bool   `json:"availableForSale"`
	AddedAt          string `json:"addedAt,omitempty"`
}

// WishlistSummary is returned by mutations: the new item count and the
// full ID list after the change.
type WishlistSummary struct {
	ItemCount int      `json:"itemCount"`
	Wishlist  []string `json:"wishlist"`
}
