package balance

import (
	"context"

	"github.com/chinmay1088/chainkit/network"
)

// Quantity is a token amount as reported upstream
type Quantity struct {
	Decimals string `json:"decimals"`
	Numeric  string `json:"numeric"`
}

// Balance is one token holding of an account
type Balance struct {
	Name     string                `json:"name"`
	Symbol   string                `json:"symbol"`
	ChainID  network.CaipNetworkID `json:"chainId"`
	Address  string                `json:"address,omitempty"`
	Value    float64               `json:"value,omitempty"`
	Price    float64               `json:"price"`
	Quantity Quantity              `json:"quantity"`
	IconURL  string                `json:"iconUrl"`
	EIP2612  bool                  `json:"eip2612,omitempty"`
}

// SwapToken is the token shape consumed by swap flows
type SwapToken struct {
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	Address  string   `json:"address"`
	Decimals int      `json:"decimals"`
	LogoURI  string   `json:"logoUri"`
	EIP2612  bool     `json:"eip2612"`
	Value    float64  `json:"value"`
	Price    float64  `json:"price"`
	Quantity Quantity `json:"quantity"`
}

// API is the fallback balance service
type API interface {
	GetBalance(ctx context.Context, address string, caip network.CaipNetworkID, forceUpdate bool) ([]Balance, error)
}
