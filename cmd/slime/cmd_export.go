package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	orchestrators "github.com/ochairo/slime/internal/domain-orchestrators"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/external-adapters/gpg"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		output  string
		sign    bool
		keyPath string
	)
	cmd := &cobra.Command{
		Use:   "export PROJECT",
		Short: "Export a project report as Markdown",
		Long: `Render the project, its summaries and the full report of every finding
as one Markdown document.

With --sign an armored detached OpenPGP signature is written next to the
output file (<output>.asc). The signing key comes from --key or
export.signing_key_path; its passphrase, if any, from the variable named by
export.passphrase_env.`,
		Example: `  slime export 5 -o acme.md --sign --key signer.asc
  slime verify acme.md acme.md.asc --key signer.pub.asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			deps := a.deps
			if sign {
				if output == "" {
					return errs.Validation("Export", "--sign needs --output")
				}
				if keyPath == "" {
					keyPath = a.cfg.Export.SigningKeyPath
				}
				if keyPath == "" {
					return errs.Validation("Export", "no signing key: use --key or set export.signing_key_path")
				}
				signer, err := gpg.NewSignerFromFile(keyPath, []byte(os.Getenv(a.cfg.Export.PassphraseEnv)))
				if err != nil {
					return err
				}
				deps.Signer = signer
			}

			result, err := orchestrators.NewExportOrchestrator(deps).Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), result.Markdown)
				return nil
			}
			if err := os.WriteFile(output, []byte(result.Markdown), 0o600); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			if result.Signed() {
				sigPath := output + ".asc"
				if err := os.WriteFile(sigPath, result.Signature, 0o600); err != nil {
					return fmt.Errorf("failed to write signature: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (key %s)\n", sigPath, result.Fingerprint)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&sign, "sign", false, "Write a detached OpenPGP signature")
	cmd.Flags().StringVar(&keyPath, "key", "", "Armored or binary private key file")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var keys []string
	cmd := &cobra.Command{
		Use:   "verify FILE SIGNATURE",
		Short: "Verify an exported report's signature",
		Args:  cobra.ExactArgs(2),
		// Verification is local; skip the console setup.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(keys) == 0 {
				return errs.Validation("Verify", "at least one --key is required")
			}
			verifier := gpg.NewVerifier()
			for _, k := range keys {
				if err := verifier.ImportKeyFromFile(k); err != nil {
					return err
				}
			}
			fingerprint, err := verifier.VerifySignatureFromFile(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Good signature from %s\n", fingerprint)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&keys, "key", nil, "Public key file (repeatable)")
	return cmd
}
