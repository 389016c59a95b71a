package cmd

import (
	"fmt"
	"strings"

	"github.com/chinmay1088/chainkit/network"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var networksCmd = &cobra.Command{
	Use:   "networks [namespace]",
	Short: "List known networks",
	Long: `List the networks chainkit knows about, grouped by namespace.

With --fetch the remote chain info service is queried and its EVM networks
are merged over the built-in list. A failed fetch keeps the built-in list.

Supported namespaces: eip155, solana, bip122, polkadot

Examples:
  chainkit networks                # All built-in networks
  chainkit networks eip155 --fetch # EVM networks including remote ones
  chainkit networks --testnet      # Only testnets`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNetworks,
}

func init() {
	networksCmd.Flags().Bool("fetch", false, "merge networks from the chain info service")
	networksCmd.Flags().Bool("testnet", false, "only show testnets")
}

func runNetworks(cmd *cobra.Command, args []string) error {
	fetch, _ := cmd.Flags().GetBool("fetch")
	testnetOnly, _ := cmd.Flags().GetBool("testnet")

	namespaces := network.Namespaces()
	if len(args) == 1 {
		ns, err := network.ParseNamespace(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		namespaces = []network.Namespace{ns}
	}

	registry := newRegistry(cmd.Context(), fetch)
	if fetch && !registry.Initialized() {
		fmt.Println(color.YellowString("⚠️  Could not reach the chain info service, showing built-in networks"))
	}

	for _, ns := range namespaces {
		nets := registry.NetworksByNamespace(ns)
		fmt.Printf("🌐 %s (%s)\n", color.CyanString(ns.Label()), ns)
		shown := 0
		for _, n := range nets {
			if testnetOnly && !n.Testnet {
				continue
			}
			printNetwork(n)
			shown++
		}
		if shown == 0 {
			fmt.Println("   No networks")
		}
		fmt.Println()
	}
	return nil
}

func printNetwork(n network.ChainNetwork) {
	kind := color.GreenString("mainnet")
	if n.Testnet {
		kind = color.YellowString("testnet")
	}
	fmt.Printf("   %-22s %-8s %s\n", n.Name, n.NativeCurrency.Symbol, kind)
	fmt.Printf("      🔗 %s\n", n.CaipNetworkID)
	if rpc := n.DefaultRPCURL(); rpc != "" {
		fmt.Printf("      📡 %s\n", rpc)
	}
}
