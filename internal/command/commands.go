package command

import "github.com/shopspring/decimal"

// Product Commands

type CreateProduct struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	Category        string          `json:"category"`
	EcoFriendly     bool            `json:"eco_friendly"`
	EcoLabels       []string        `json:"eco_labels"`
	Material        string          `json:"material"`
	CarbonFootprint float64         `json:"carbon_footprint"`
}

type UpdateProduct struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	Category        string          `json:"category"`
	EcoFriendly     bool            `json:"eco_friendly"`
	EcoLabels       []string        `json:"eco_labels"`
	Material        string          `json:"material"`
	CarbonFootprint float64         `json:"carbon_footprint"`
}

// Cart Commands

type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order Commands

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrder struct {
	UserID    string      `json:"user_id"`
	AddressID string      `json:"address_id"`
	Items     []OrderLine `json:"items"`
}

// TransitionOrder moves an order through the status state machine.
// RequestedBy restricts the transition to the order's owner; an empty value
// means an administrative request with no ownership check.
type TransitionOrder struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	RequestedBy string `json:"-"`
}
