package cmd

import (
	"fmt"

	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/wallet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address [namespace]",
	Short: "Show wallet addresses",
	Long: `Show the addresses derived from your recovery phrase.

The phrase is read from CHAINKIT_MNEMONIC or prompted for. Use --generate
to create a new phrase instead.

Supported namespaces: eip155, solana, bip122, polkadot

Examples:
  chainkit address             # Show all addresses
  chainkit address solana      # Show the Solana address
  chainkit address bip122 --testnet
  chainkit address --generate  # Create a new wallet`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAddress,
}

func init() {
	addressCmd.Flags().Bool("testnet", false, "derive testnet Bitcoin addresses")
	addressCmd.Flags().Bool("generate", false, "generate a new recovery phrase")
}

func runAddress(cmd *cobra.Command, args []string) error {
	testnet, _ := cmd.Flags().GetBool("testnet")
	generate, _ := cmd.Flags().GetBool("generate")

	var opts []wallet.Option
	if testnet {
		opts = append(opts, wallet.WithBitcoinTestnet())
	}

	var w *wallet.Wallet
	if generate {
		generated, mnemonic, err := wallet.Generate(opts...)
		if err != nil {
			return fmt.Errorf("failed to generate wallet: %w", err)
		}
		w = generated
		fmt.Println("🔐 Your new recovery phrase:")
		fmt.Println(color.YellowString(mnemonic))
		fmt.Println("⚠️  Write it down and keep it safe. It cannot be shown again.")
		fmt.Println()
	} else {
		mnemonic, err := readMnemonic()
		if err != nil {
			return err
		}
		if w, err = wallet.New(mnemonic, opts...); err != nil {
			return fmt.Errorf("failed to load wallet: %w", err)
		}
	}

	namespaces := w.Namespaces()
	if len(args) == 1 {
		ns, err := parseNamespaceArg(args)
		if err != nil {
			return err
		}
		namespaces = []network.Namespace{ns}
	}

	fmt.Println("🔑 Your wallet addresses:")
	if testnet {
		fmt.Printf("🌐 Bitcoin: %s\n", color.YellowString("Testnet"))
	}
	fmt.Println()
	for _, ns := range namespaces {
		fmt.Printf("%-10s %s\n", ns.Label()+":", w.Address(ns))
	}
	return nil
}
