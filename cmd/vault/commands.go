package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagOwner string
	flagUser  string
	flagShare string
	flagOut   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the ledger and the vault master key",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		chain := a.ledger.Chain(ctx)
		fmt.Printf("ledger ready, %d block(s), genesis %s\n", len(chain), chain[0].BlockHash[:16])
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Encrypt and store a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		res, err := a.svc.Upload(ctx, flagOwner, filepath.Base(args[0]), content, splitUsers(flagShare))
		if err != nil {
			return err
		}

		fmt.Printf("file id:    %s\n", res.FileID)
		fmt.Printf("block hash: %s\n", res.BlockHash)
		fmt.Printf("checksum:   %s\n", res.Checksum)
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <file-id>",
	Short: "Decrypt a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		plaintext, md, err := a.svc.Decrypt(ctx, flagUser, args[0])
		if err != nil {
			return err
		}

		out := flagOut
		if out == "" {
			out = md.OriginalName
		}
		if err := os.WriteFile(out, plaintext, 0o600); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(plaintext), out)
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List files accessible to a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		files, err := a.svc.ListAccessible(ctx, flagUser)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("no accessible files")
			return nil
		}
		for _, f := range files {
			fmt.Printf("%s  %-24s  owner=%s  %d bytes  %s\n",
				f.FileID, f.OriginalName, f.Owner, f.Size,
				time.Unix(f.Timestamp, 0).Format(time.RFC3339))
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <file-id>",
	Short: "Show a file's audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		events, err := a.svc.AuditTrail(ctx, args[0])
		if err != nil {
			return err
		}
		for _, e := range events {
			outcome := "DENIED"
			if e.Granted {
				outcome = "ok"
			}
			line := fmt.Sprintf("%s  %-28s  %-12s  %s",
				time.Unix(e.Timestamp, 0).Format(time.RFC3339), e.Kind, e.Actor, outcome)
			if e.Reason != "" {
				line += "  (" + e.Reason + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [file-id]",
	Short: "Verify chain integrity, or a single file's security posture",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		if len(args) == 0 {
			if a.svc.VerifyIntegrity(ctx) {
				fmt.Println("chain OK")
				return nil
			}
			return fmt.Errorf("chain integrity check failed, run 'vault repair'")
		}

		report, err := a.svc.VerifySecurity(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("file:                  %s\n", report.FileID)
		fmt.Printf("chain valid:           %v\n", report.ChainValid)
		fmt.Printf("owner:                 %s\n", report.Owner)
		fmt.Printf("authorized users:      %v\n", report.AuthorizedUsers)
		fmt.Printf("successful accesses:   %d\n", report.Events.SuccessfulAccesses)
		fmt.Printf("unauthorized attempts: %d\n", report.Events.UnauthorizedAttempts)
		fmt.Printf("failed decryptions:    %d\n", report.Events.FailedDecryptions)
		return nil
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Rebuild chain hashes and links from genesis forward",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		if err := a.svc.Repair(ctx); err != nil {
			return err
		}
		fmt.Println("chain repaired")
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		s := a.svc.Stats(ctx)
		fmt.Printf("blocks:       %d\n", s.Blocks)
		fmt.Printf("files:        %d\n", s.Files)
		fmt.Printf("audit events: %d\n", s.AuditEvents)
		fmt.Printf("chain valid:  %v\n", s.ChainValid)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete a file's ciphertext and key material (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.cleanup()

		ctx, cancel := a.opCtx(cmd.Context())
		defer cancel()

		if err := a.svc.Delete(ctx, flagOwner, args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&flagOwner, "owner", "", "owner identity")
	uploadCmd.Flags().StringVar(&flagShare, "share", "", "comma-separated users allowed to decrypt")
	_ = uploadCmd.MarkFlagRequired("owner")

	decryptCmd.Flags().StringVar(&flagUser, "user", "", "requesting identity")
	decryptCmd.Flags().StringVar(&flagOut, "out", "", "output path (defaults to the original name)")
	_ = decryptCmd.MarkFlagRequired("user")

	lsCmd.Flags().StringVar(&flagUser, "user", "", "requesting identity")
	_ = lsCmd.MarkFlagRequired("user")

	rmCmd.Flags().StringVar(&flagOwner, "owner", "", "owner identity")
	_ = rmCmd.MarkFlagRequired("owner")

	rootCmd.AddCommand(initCmd, uploadCmd, decryptCmd, lsCmd, auditCmd, verifyCmd, repairCmd, statsCmd, rmCmd)
}
