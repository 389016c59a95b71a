package cmd

import (
	"fmt"
	"io"

	"github.com/chinmay1088/chainkit/config"
	"github.com/chinmay1088/chainkit/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.3.0"

	cfg *config.Config
	log zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "chainkit",
	Aliases: []string{"ck"},
	Short:   "Multi-chain wallet session toolkit",
	Long: `Chainkit connects wallets across EVM, Solana, Bitcoin and Polkadot
networks, signs them in with CAIP-122 messages and aggregates their token
balances.

Features:
  • CAIP-2 network registry with remote chain info
  • Sign-in sessions verified per namespace (EIP-191, ed25519, BIP-137, sr25519)
  • Optional passphrase-sealed session storage
  • Token balances from the wallet or the balance service

Examples:
  chainkit networks --fetch                    # List known networks
  chainkit address                             # Show derived addresses
  chainkit balance eip155 --network eip155:8453
  chainkit session sign solana                 # Sign in on Solana
  chainkit session list --network eip155:1 --address 0x1234...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		level := cfg.LogLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			log = logger.NewWithWriter(io.Discard, level)
			return nil
		}
		log = logger.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress log output")

	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Chainkit v%s (%s)\n", version, cfg.Mode)
	},
}
