package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dstepanenko/chainvault/internal/blobstore"
	"github.com/dstepanenko/chainvault/internal/config"
	"github.com/dstepanenko/chainvault/internal/ledger"
	"github.com/dstepanenko/chainvault/internal/ledger/jsonstore"
	lpg "github.com/dstepanenko/chainvault/internal/ledger/postgres"
	"github.com/dstepanenko/chainvault/internal/logging"
	"github.com/dstepanenko/chainvault/internal/migrations"
	"github.com/dstepanenko/chainvault/internal/seed"
	"github.com/dstepanenko/chainvault/internal/service"
	"github.com/dstepanenko/chainvault/internal/vault"
)

const passphraseEnv = "CHAINVAULT_PASSPHRASE"

var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "chainvault - encrypted file storage bound to a hash-chain ledger",
	Long: `chainvault stores files encrypted under seeds derived from an append-only
hash-chain ledger. Every upload appends a block; the block's hash, timestamp
and file id become the encryption context. Access is gated by the ledger's
authorized-user list and every attempt is written to a tamper-evident
per-file audit log.`,
	SilenceUsage: true,
}

// app bundles what the subcommands need.
type app struct {
	cfg     *config.Config
	svc     *service.Service
	ledger  *ledger.Ledger
	cleanup func()
}

// opCtx derives the deadline-bound context used for every storage-touching
// operation, per the configured store timeout.
func (a *app) opCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.StoreTimeout)
}

func buildApp(ctx context.Context) (*app, error) {
	cfg := config.LoadConfig()

	handler := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(handler)

	// startup I/O (migrations, chain load, master-key bootstrap) runs
	// under the same store timeout as the commands themselves
	ioCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	var (
		db          *sql.DB
		ledgerStore ledger.Store
		keyVault    vault.Vault
		cleanup     = func() {}
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		if err := migrations.Run(ioCtx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		cleanup = func() { db.Close() }
		ledgerStore = lpg.New(db)
		keyVault = vault.NewPostgresVault(db)
	case config.StorageFile:
		ledgerStore = jsonstore.New(cfg.LedgerPath)
		vaultBlobs, err := blobstore.NewFSStore(cfg.VaultDir)
		if err != nil {
			return nil, fmt.Errorf("vault dir: %w", err)
		}
		keyVault = vault.NewBlobVault(vaultBlobs)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	var blobs blobstore.Store
	switch cfg.BlobBackend {
	case config.BlobS3:
		var err error
		blobs, err = blobstore.NewS3Store(ioCtx, blobstore.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			BaseEndpoint:    cfg.S3BaseEndpoint,
			AccessKeyID:     cfg.S3RootUser,
			SecretAccessKey: cfg.S3RootPassword,
		})
		if err != nil {
			cleanup()
			return nil, err
		}
	case config.BlobFS:
		var err error
		blobs, err = blobstore.NewFSStore(cfg.BlobDir)
		if err != nil {
			cleanup()
			return nil, err
		}
	default:
		cleanup()
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}

	passphrase, err := readPassphrase()
	if err != nil {
		cleanup()
		return nil, err
	}
	secrets := seed.NewPassphraseStore(passphrase)

	l, err := ledger.New(ioCtx, ledgerStore, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := l.Init(ioCtx); err != nil {
		cleanup()
		return nil, err
	}

	svc, err := service.New(ioCtx, l, keyVault, blobs, secrets, logger,
		service.WithMaxFileSize(cfg.MaxFileSize))
	if err != nil {
		cleanup()
		return nil, err
	}

	return &app{cfg: cfg, svc: svc, ledger: l, cleanup: cleanup}, nil
}

// readPassphrase takes the owner passphrase from the environment or, on a
// terminal, from an interactive no-echo prompt.
func readPassphrase() ([]byte, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return []byte(p), nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("no passphrase: set %s or run on a terminal", passphraseEnv)
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	p, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return p, nil
}

func splitUsers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			users = append(users, p)
		}
	}
	return users
}
