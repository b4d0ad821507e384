package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-sqfs/internal/crypto"
	"github.com/deploymenttheory/go-sqfs/internal/logger"
)

var (
	// Global output flags only
	verbose      bool
	outputFormat string
	keyHex       string
)

var rootCmd = &cobra.Command{
	Use:   "go-sqfs",
	Short: "Structural lister for RC4-encrypted SquashFS images",
	Long: `go-sqfs is a read-only command-line tool for recovering the directory
structure and file metadata of SquashFS images that have been bulk-encrypted
with the RC4 stream cipher.

Given the image and its 16-byte key (32 hex characters), it decrypts and
decodes the superblock, inode table and directory table, and lists every
path with its type, size and permissions. File contents are not extracted.

Commands:
  list    List all paths in the image
  info    Decode and print the superblock`,
	Version: "0.1.0-dev",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format := "human"
		if outputFormat == "json" {
			format = "json"
		}
		return logger.Init(verbose, format)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&keyHex, "key", "k", "", "RC4 key as 32 hex characters")

	viper.SetEnvPrefix("SQFS")
	viper.AutomaticEnv()
	viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
}

// resolveKey returns the 16-byte key from the --key flag, the SQFS_KEY
// environment variable, or a viper config file, in that precedence.
func resolveKey() ([]byte, error) {
	raw := viper.GetString("key")
	if raw == "" {
		return nil, fmt.Errorf("no key provided: use --key or SQFS_KEY")
	}
	return parseKey(raw)
}

// parseKey decodes a 32-hex-character key, tolerating embedded spaces.
func parseKey(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != crypto.KeySize*2 {
		return nil, fmt.Errorf("key must be %d hex characters, got %d", crypto.KeySize*2, len(s))
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	return key, nil
}
