package cmd

import (
	"fmt"

	"github.com/chinmay1088/chainkit/api"
	"github.com/chinmay1088/chainkit/balance"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [namespace]",
	Short: "Check token balances",
	Long: `Check the token balances of your wallet on one network.

The wallet derived from your recovery phrase is connected through the
connector and chain controllers. EVM balances come from the wallet when it
can report them, otherwise from the balance service. Entries reporting zero
decimals are hidden.

With --address any account can be looked up without a recovery phrase.

Supported namespaces: eip155, solana, bip122, polkadot

Examples:
  chainkit balance                               # Ethereum mainnet
  chainkit balance eip155 --network eip155:8453  # Base
  chainkit balance solana --force                # Skip the balance cache
  chainkit balance --network eip155:1 --address 0x1234...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBalance,
}

func init() {
	balanceCmd.Flags().String("network", "", "CAIP-2 network id (defaults to the first network of the namespace)")
	balanceCmd.Flags().String("address", "", "look up this address instead of your wallet")
	balanceCmd.Flags().Bool("force", false, "bypass the balance service cache")
	balanceCmd.Flags().Bool("swap", false, "show tokens in swap format")
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	networkID, _ := cmd.Flags().GetString("network")
	address, _ := cmd.Flags().GetString("address")
	force, _ := cmd.Flags().GetBool("force")
	swap, _ := cmd.Flags().GetBool("swap")

	ns, err := parseNamespaceArg(args)
	if err != nil {
		return err
	}
	if len(args) == 0 && networkID != "" {
		ns = network.CaipNetworkID(networkID).Namespace()
	}

	registry := newRegistry(ctx, ns == network.NamespaceEVM)
	net, err := resolveNetwork(registry, ns, networkID)
	if err != nil {
		return err
	}
	client := api.NewClient(cfg, api.WithLogger(log))

	var balances []balance.Balance
	if address != "" {
		fetched, err := client.GetBalance(ctx, address, net.CaipNetworkID, force)
		if err != nil {
			return fmt.Errorf("failed to fetch balances: %w", err)
		}
		balances = balance.FilterLowQuality(fetched)
	} else {
		sessions, err := newSessionManager(siwx.NewMemoryStorage())
		if err != nil {
			return err
		}
		s, err := newSession(registry, sessions, net)
		if err != nil {
			return err
		}
		account, err := s.connect(ctx, net)
		if err != nil {
			return err
		}
		address = account.Address

		aggregator, err := balance.NewAggregator(s.chains, client, balance.WithLogger(log))
		if err != nil {
			return err
		}
		if balances, err = aggregator.GetMyTokensWithBalance(ctx, force); err != nil {
			return fmt.Errorf("failed to fetch balances: %w", err)
		}
	}

	fmt.Println("💰 Token Balances")
	fmt.Printf("🌐 Network: %s (%s)\n", color.CyanString(net.Name), net.CaipNetworkID)
	fmt.Printf("📍 Address: %s\n", address)
	fmt.Println()

	if len(balances) == 0 {
		fmt.Println("No tokens with a balance")
		return nil
	}
	if swap {
		printSwapTokens(balance.ToSwapTokens(balances))
		return nil
	}
	printBalances(balances)
	return nil
}

func printBalances(balances []balance.Balance) {
	total := decimal.Zero
	for _, b := range balances {
		fmt.Printf("%-10s %24s  %s\n",
			color.New(color.Bold).Sprint(b.Symbol),
			b.Quantity.Numeric,
			color.GreenString("$%.2f", b.Value))
		if b.Address != "" {
			fmt.Printf("           %s\n", b.Address)
		}
		total = total.Add(decimal.NewFromFloat(b.Value))
	}
	fmt.Println()
	fmt.Printf("💵 Total: %s\n", color.GreenString("$%s", total.StringFixed(2)))
}

func printSwapTokens(tokens []balance.SwapToken) {
	for _, t := range tokens {
		raw := "?"
		if q, err := decimal.NewFromString(t.Quantity.Numeric); err == nil {
			// base units the swap router expects
			raw = q.Shift(int32(t.Decimals)).Truncate(0).BigInt().String()
		}
		fmt.Printf("%-10s decimals=%-3d units=%s\n", color.New(color.Bold).Sprint(t.Symbol), t.Decimals, raw)
		fmt.Printf("           %s\n", t.Address)
		if t.EIP2612 {
			fmt.Println("           permit: supported")
		}
	}
}
