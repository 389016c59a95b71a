package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chinmay1088/chainkit/api"
	"github.com/chinmay1088/chainkit/chain"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sign-in sessions",
	Long: `Sign in with your wallet and manage the stored sign-in sessions.

Sessions are stored under CHAINKIT_STORAGE_DIR, one entry per namespace.
Pass --sealed to encrypt them with a passphrase (CHAINKIT_PASSPHRASE or
prompted). Stored sessions are verified again every time they are read.

Before signing, the sign-in domain (CHAINKIT_SIWX_DOMAIN) is checked with
the verify service. Domains flagged as malicious are refused.

Examples:
  chainkit session sign                          # Sign in on Ethereum
  chainkit session sign polkadot --sealed
  chainkit session list --network eip155:1 --address 0x1234...
  chainkit session revoke --network eip155:1 --address 0x1234...`,
}

var sessionSignCmd = &cobra.Command{
	Use:   "sign [namespace]",
	Short: "Sign in with your wallet",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionSign,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List valid sessions of an account",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Remove the sessions of an account",
	Args:  cobra.NoArgs,
	RunE:  runSessionRevoke,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored session",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	sessionCmd.PersistentFlags().Bool("sealed", false, "encrypt stored sessions with a passphrase")
	sessionCmd.PersistentFlags().String("network", "", "CAIP-2 network id")

	sessionListCmd.Flags().String("address", "", "account address")
	sessionRevokeCmd.Flags().String("address", "", "account address")
	_ = sessionListCmd.MarkFlagRequired("address")
	_ = sessionRevokeCmd.MarkFlagRequired("address")

	sessionCmd.AddCommand(sessionSignCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionRevokeCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

func openSessions(cmd *cobra.Command) (*siwx.Manager, error) {
	sealed, _ := cmd.Flags().GetBool("sealed")
	store, err := openSessionStore(sealed)
	if err != nil {
		return nil, err
	}
	return newSessionManager(store)
}

// accountFlags reads --network and --address
func accountFlags(cmd *cobra.Command) (network.CaipNetworkID, string, error) {
	networkID, _ := cmd.Flags().GetString("network")
	address, _ := cmd.Flags().GetString("address")
	if networkID == "" {
		return "", "", fmt.Errorf("--network is required")
	}
	caip := network.CaipNetworkID(networkID)
	if _, _, err := caip.Parse(); err != nil {
		return "", "", err
	}
	return caip, address, nil
}

func runSessionSign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	networkID, _ := cmd.Flags().GetString("network")

	ns, err := parseNamespaceArg(args)
	if err != nil {
		return err
	}
	if len(args) == 0 && networkID != "" {
		ns = network.CaipNetworkID(networkID).Namespace()
	}

	registry := newRegistry(ctx, false)
	net, err := resolveNetwork(registry, ns, networkID)
	if err != nil {
		return err
	}
	if err := checkDomain(ctx, api.NewClient(cfg, api.WithLogger(log)), cfg.SIWX.Domain); err != nil {
		return err
	}
	sessions, err := openSessions(cmd)
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

	fmt.Printf("🌐 Network: %s (%s)\n", color.CyanString(net.Name), net.CaipNetworkID)
	fmt.Printf("📍 Address: %s\n", account.Address)

	// with CHAINKIT_SIWX_REQUIRED the connect already signed in
	if account.Status == chain.StatusConnectedVerified {
		fmt.Println(color.GreenString("✅ Signed in"))
		return nil
	}

	signed, err := s.chains.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}

	fmt.Println(color.GreenString("✅ Signed in"))
	printSession(signed)
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	caip, address, err := accountFlags(cmd)
	if err != nil {
		return err
	}
	sessions, err := openSessions(cmd)
	if err != nil {
		return err
	}

	list, err := sessions.GetSessions(cmd.Context(), caip, address)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No valid sessions")
		return nil
	}
	fmt.Printf("🔏 %d valid session(s) for %s on %s\n\n", len(list), address, caip)
	for _, s := range list {
		printSession(s)
		fmt.Println()
	}
	return nil
}

func runSessionRevoke(cmd *cobra.Command, args []string) error {
	caip, address, err := accountFlags(cmd)
	if err != nil {
		return err
	}
	sessions, err := openSessions(cmd)
	if err != nil {
		return err
	}
	if err := sessions.RevokeSession(cmd.Context(), caip, address); err != nil {
		return err
	}
	fmt.Println(color.GreenString("✅ Sessions revoked"))
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	sessions, err := openSessions(cmd)
	if err != nil {
		return err
	}
	if err := sessions.SetSessions(cmd.Context(), nil); err != nil {
		return err
	}
	fmt.Println(color.GreenString("✅ All sessions removed"))
	return nil
}

// checkDomain refuses domains the verify service flags as malicious. An
// unreachable service only warns.
func checkDomain(ctx context.Context, client *api.Client, domain string) error {
	verdict, err := client.GetDomainVerification(ctx, domain)
	if err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("domain verification unavailable")
		return nil
	}
	if verdict.Scam {
		return fmt.Errorf("refusing to sign in: %s is flagged as malicious", domain)
	}
	if !verdict.Verified {
		fmt.Println(color.YellowString("⚠️  %s is not a verified domain", domain))
	}
	return nil
}

func printSession(s siwx.Session) {
	fmt.Printf("   Domain:  %s\n", s.Data.Domain)
	fmt.Printf("   Nonce:   %s\n", s.Data.Nonce)
	fmt.Printf("   Issued:  %s\n", s.Data.IssuedAt.Format(time.RFC3339))
	if s.Data.ExpirationTime != nil {
		fmt.Printf("   Expires: %s\n", s.Data.ExpirationTime.Format(time.RFC3339))
	} else {
		fmt.Println("   Expires: never")
	}
	fmt.Printf("   Signature: %s\n", truncate(s.Signature, 42))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
