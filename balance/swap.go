package balance

import (
	"strconv"

	"github.com/chinmay1088/chainkit/network"
)

// FilterLowQuality drops entries reporting "0" decimals, keeping order
func FilterLowQuality(balances []Balance) []Balance {
	out := make([]Balance, 0, len(balances))
	for _, b := range balances {
		if b.Quantity.Decimals == "0" {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ToSwapToken converts a balance into the swap token shape. Missing
// addresses fall back to the network's native token address.
func ToSwapToken(b Balance) SwapToken {
	address := b.Address
	if address == "" {
		address = network.NativeTokenAddress(b.ChainID)
	}
	decimals, err := strconv.Atoi(b.Quantity.Decimals)
	if err != nil || !ValidDecimals(decimals) {
		decimals = 0
	}
	return SwapToken{
		Name:     b.Name,
		Symbol:   b.Symbol,
		Address:  address,
		Decimals: decimals,
		LogoURI:  b.IconURL,
		EIP2612:  b.EIP2612,
		Value:    b.Value,
		Price:    b.Price,
		Quantity: b.Quantity,
	}
}

func ToSwapTokens(balances []Balance) []SwapToken {
	out := make([]SwapToken, 0, len(balances))
	for _, b := range balances {
		out = append(out, ToSwapToken(b))
	}
	return out
}
