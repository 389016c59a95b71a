package network

// Genesis-hash references for the non-EVM defaults
const (
	SolanaMainnetRef   = "5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	SolanaDevnetRef    = "EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
	BitcoinMainnetRef  = "000000000019d6689c085ae165831e93"
	BitcoinTestnetRef  = "000000000933ea01ad0ee984209779ba"
	PolkadotMainnetRef = "91b171bb158e2d3848fa23a9f1c25182"
)

// canonical token addresses used when a balance carries no contract address
const (
	EVMNativeTokenAddress     = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	SolanaNativeTokenAddress  = "So11111111111111111111111111111111111111111"
	BitcoinNativeTokenAddress = "native"
	DotNativeTokenAddress     = "native"
)

// NativeTokenAddress returns the CAIP-10 style address of a network's gas token
func NativeTokenAddress(caip CaipNetworkID) string {
	var addr string
	switch caip.Namespace() {
	case NamespaceEVM:
		addr = EVMNativeTokenAddress
	case NamespaceSolana:
		addr = SolanaNativeTokenAddress
	case NamespaceBitcoin:
		addr = BitcoinNativeTokenAddress
	case NamespacePolkadot:
		addr = DotNativeTokenAddress
	default:
		return ""
	}
	return caip.String() + ":" + addr
}

var ether = NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}

// DefaultNetworks returns the built-in network list
func DefaultNetworks() []ChainNetwork {
	return []ChainNetwork{
		New(NamespaceEVM, NumericChainID(1), "Ethereum", ether,
			[]string{"https://ethereum-rpc.publicnode.com"}, "https://etherscan.io", false),
		New(NamespaceEVM, NumericChainID(11155111), "Sepolia", NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
			[]string{"https://ethereum-sepolia.publicnode.com"}, "https://sepolia.etherscan.io", true),
		New(NamespaceEVM, NumericChainID(10), "OP Mainnet", ether,
			[]string{"https://mainnet.optimism.io"}, "https://optimistic.etherscan.io", false),
		New(NamespaceEVM, NumericChainID(56), "BNB Smart Chain", NativeCurrency{Name: "BNB", Symbol: "BNB", Decimals: 18},
			[]string{"https://bsc-dataseed.bnbchain.org"}, "https://bscscan.com", false),
		New(NamespaceEVM, NumericChainID(137), "Polygon", NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
			[]string{"https://polygon-rpc.com"}, "https://polygonscan.com", false),
		New(NamespaceEVM, NumericChainID(8453), "Base", ether,
			[]string{"https://mainnet.base.org"}, "https://basescan.org", false),
		New(NamespaceEVM, NumericChainID(42161), "Arbitrum One", ether,
			[]string{"https://arb1.arbitrum.io/rpc"}, "https://arbiscan.io", false),
		New(NamespaceSolana, ChainID(SolanaMainnetRef), "Solana", NativeCurrency{Name: "Solana", Symbol: "SOL", Decimals: 9},
			[]string{"https://api.mainnet-beta.solana.com"}, "https://solscan.io", false),
		New(NamespaceSolana, ChainID(SolanaDevnetRef), "Solana Devnet", NativeCurrency{Name: "Solana", Symbol: "SOL", Decimals: 9},
			[]string{"https://api.devnet.solana.com"}, "https://solscan.io/?cluster=devnet", true),
		New(NamespaceBitcoin, ChainID(BitcoinMainnetRef), "Bitcoin", NativeCurrency{Name: "Bitcoin", Symbol: "BTC", Decimals: 8},
			[]string{"https://blockchain.info"}, "https://mempool.space", false),
		New(NamespaceBitcoin, ChainID(BitcoinTestnetRef), "Bitcoin Testnet", NativeCurrency{Name: "Bitcoin", Symbol: "BTC", Decimals: 8},
			[]string{"https://mempool.space/testnet/api"}, "https://mempool.space/testnet", true),
		New(NamespacePolkadot, ChainID(PolkadotMainnetRef), "Polkadot", NativeCurrency{Name: "Polkadot", Symbol: "DOT", Decimals: 10},
			[]string{"wss://rpc.polkadot.io"}, "https://polkadot.subscan.io", false),
	}
}
