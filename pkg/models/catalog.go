package models

// CatalogItem is a purchasable menu entry. Price is in the smallest currency unit.
type CatalogItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	Category  string  `json:"category"`
	Rating    float64 `json:"rating"`
	IsPopular bool    `json:"isPopular"`
	ImageURL  string  `json:"imageUrl"`
}

// NewProduct carries the fields of a multipart POST /products.
type NewProduct struct {
	Name      string
	Price     int64
	Category  string
	IsPopular bool
	ImageName string
	Image     []byte
}

type Table struct {
	ID          string `json:"id"`
	TableNumber string `json:"tableNumber"`
	IsAvailable bool   `json:"isAvailable"`
}

type NewTable struct {
	TableNumber string `json:"tableNumber"`
}

type CartLine struct {
	Item     CatalogItem `json:"item"`
	Quantity int         `json:"quantity"`
}

// Session is the customer identity bound to one browser tab.
type Session struct {
	CustomerName string `json:"customerName"`
	TableID      string `json:"tableId"`
	TableNumber  string `json:"tableNumber"`
	OrderID      string `json:"orderId,omitempty"`
}

type StartSessionRequest struct {
	CustomerName string `json:"customerName"`
	TableID      string `json:"tableId"`
}

// StartSessionResponse wraps the collaborator's sessionData.
type StartSessionResponse struct {
	SessionData Session `json:"sessionData"`
}
