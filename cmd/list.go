package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-sqfs/internal/interfaces"
	"github.com/deploymenttheory/go-sqfs/internal/logger"
	"github.com/deploymenttheory/go-sqfs/internal/services"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list [image-path]",
	Short: "List all paths in the image",
	Long: `List every filesystem object in the encrypted image in on-disk order.

Examples:
  # Table listing
  go-sqfs list firmware.sqsh --key 000102030405060708090a0b0c0d0e0f

  # JSON listing, key from the environment
  SQFS_KEY=000102030405060708090a0b0c0d0e0f go-sqfs list firmware.sqsh -o json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(imagePath string) error {
	key, err := resolveKey()
	if err != nil {
		return err
	}

	session, err := services.OpenImageFile(imagePath, key)
	if err != nil {
		return err
	}
	defer session.Close()

	logger.Logger.Debugw("image session opened",
		"session_id", session.SessionID,
		"image", imagePath,
	)

	lister, err := services.NewFileSystemLister(session)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return renderJSON(lister)
	}
	return renderTable(lister)
}

func renderTable(lister interfaces.TreeLister) error {
	return lister.Walk(func(e types.PathEntry) error {
		if e.SymlinkTarget != "" {
			fmt.Printf("%-12s %04o %10d  %s -> %s\n", e.Type, e.Mode, e.Size, e.Path, e.SymlinkTarget)
			return nil
		}
		fmt.Printf("%-12s %04o %10d  %s\n", e.Type, e.Mode, e.Size, e.Path)
		return nil
	})
}

func renderJSON(lister interfaces.TreeLister) error {
	entries, err := lister.List()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
