package config

import (
	"flag"
	"os"
	"time"

	"github.com/dstepanenko/chainvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-o string   data directory for file-backed state
//	-l string   ledger JSON file path
//	-f string   ciphertext blob directory
//	-k string   key-material directory
//	-s string   ledger/vault backend: "file" or "postgres"
//	-w string   ciphertext backend: "fs" or "s3"
//	-d string   PostgreSQL DSN
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m int      max upload size, bytes
//	-t int      storage operation timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other layers.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-o", "-l", "-f", "-k", "-s", "-w", "-d", "-u", "-p", "-b", "-g", "-e", "-m", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DataDir, "o", config.DataDir, "data directory")
	fs.StringVar(&config.LedgerPath, "l", config.LedgerPath, "ledger file path")
	fs.StringVar(&config.BlobDir, "f", config.BlobDir, "blob directory")
	fs.StringVar(&config.VaultDir, "k", config.VaultDir, "key vault directory")
	fs.StringVar(&config.Storage, "s", config.Storage, "storage backend (file|postgres)")
	fs.StringVar(&config.BlobBackend, "w", config.BlobBackend, "blob backend (fs|s3)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.Int64Var(&config.MaxFileSize, "m", config.MaxFileSize, "max upload size (bytes)")
	storeTimeout := fs.Int("t", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
}
