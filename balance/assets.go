package balance

import (
	"encoding/json"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/chinmay1088/chainkit/network"
	"github.com/shopspring/decimal"
)

// WalletAsset is one entry of a wallet_getAssets response
type WalletAsset struct {
	Address  string         `json:"address"`
	Balance  string         `json:"balance"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

// WalletGetAssetsResponse maps a hex chain id to the assets held on it
type WalletGetAssetsResponse map[string][]WalletAsset

// IsWalletGetAssetsResponse reports whether v has the wallet_getAssets shape
func IsWalletGetAssetsResponse(v any) bool {
	_, ok := ParseWalletGetAssets(v)
	return ok
}

// ParseWalletGetAssets validates a provider result and converts it. Raw
// JSON, decoded JSON and typed responses are accepted.
func ParseWalletGetAssets(v any) (WalletGetAssetsResponse, bool) {
	switch r := v.(type) {
	case WalletGetAssetsResponse:
		return r, validResponse(r)
	case map[string][]WalletAsset:
		return WalletGetAssetsResponse(r), validResponse(r)
	case json.RawMessage:
		return parseRaw(r)
	case []byte:
		return parseRaw(r)
	case map[string]any:
		out := make(WalletGetAssetsResponse, len(r))
		for chain, list := range r {
			items, ok := list.([]any)
			if !ok {
				return nil, false
			}
			assets := make([]WalletAsset, 0, len(items))
			for _, item := range items {
				asset, ok := assetFromMap(item)
				if !ok {
					return nil, false
				}
				assets = append(assets, asset)
			}
			out[chain] = assets
		}
		return out, validResponse(out)
	}
	return nil, false
}

func parseRaw(raw []byte) (WalletGetAssetsResponse, bool) {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	return ParseWalletGetAssets(decoded)
}

func assetFromMap(item any) (WalletAsset, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return WalletAsset{}, false
	}
	address, ok1 := m["address"].(string)
	bal, ok2 := m["balance"].(string)
	typ, ok3 := m["type"].(string)
	meta, ok4 := m["metadata"].(map[string]any)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return WalletAsset{}, false
	}
	return WalletAsset{Address: address, Balance: bal, Type: typ, Metadata: meta}, true
}

func validResponse(r map[string][]WalletAsset) bool {
	if r == nil {
		return false
	}
	for chain, assets := range r {
		if _, ok := parseHexInt(chain); !ok {
			return false
		}
		for _, a := range assets {
			if a.Address == "" || a.Type == "" || a.Metadata == nil {
				return false
			}
			if _, ok := parseHexInt(a.Balance); !ok {
				return false
			}
		}
	}
	return true
}

func parseHexInt(s string) (*big.Int, bool) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, false
	}
	if len(s) == 2 {
		return new(big.Int), true
	}
	return new(big.Int).SetString(s[2:], 16)
}

// MapWalletAssets converts a wallet_getAssets response into balances,
// ordered by chain id
func MapWalletAssets(resp WalletGetAssetsResponse) []Balance {
	chains := make([]string, 0, len(resp))
	for chain := range resp {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool {
		a, _ := parseHexInt(chains[i])
		b, _ := parseHexInt(chains[j])
		if a == nil || b == nil {
			return chains[i] < chains[j]
		}
		return a.Cmp(b) < 0
	})

	var out []Balance
	for _, chain := range chains {
		id, ok := parseHexInt(chain)
		if !ok {
			continue
		}
		caip := network.CaipNetworkID(string(network.NamespaceEVM) + ":" + id.String())
		for _, asset := range resp[chain] {
			out = append(out, mapAsset(caip, asset))
		}
	}
	return out
}

func mapAsset(caip network.CaipNetworkID, asset WalletAsset) Balance {
	// out of range decimals count as unknown, which hides the entry
	decimals := metaInt(asset.Metadata, "decimals")
	if !ValidDecimals(decimals) {
		decimals = 0
	}
	amount, _ := parseHexInt(asset.Balance)
	if amount == nil {
		amount = new(big.Int)
	}
	numeric := FormatUnits(amount, decimals)

	b := Balance{
		Name:    metaString(asset.Metadata, "name"),
		Symbol:  metaString(asset.Metadata, "symbol"),
		ChainID: caip,
		Price:   metaFloat(asset.Metadata, "price"),
		IconURL: metaString(asset.Metadata, "iconUrl"),
		Quantity: Quantity{
			Decimals: strconv.Itoa(decimals),
			Numeric:  numeric,
		},
	}
	if !strings.EqualFold(asset.Type, "native") && !strings.EqualFold(asset.Address, "native") {
		b.Address = caip.String() + ":" + asset.Address
	}
	if b.Price > 0 {
		v, _ := decimal.RequireFromString(numeric).Mul(decimal.NewFromFloat(b.Price)).Float64()
		b.Value = v
	}
	return b
}

// MaxDecimals bounds token decimals. ERC-20 keeps them in a uint8.
const MaxDecimals = 255

// ValidDecimals reports whether d is in [0, MaxDecimals]
func ValidDecimals(d int) bool {
	return d >= 0 && d <= MaxDecimals
}

// FormatUnits renders amount scaled down by decimals, clamped to
// [0, MaxDecimals]
func FormatUnits(amount *big.Int, decimals int) string {
	decimals = min(max(decimals, 0), MaxDecimals)
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func metaFloat(meta map[string]any, key string) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case float64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0
		}
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}
