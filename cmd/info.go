package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-sqfs/internal/services"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

var infoCmd = &cobra.Command{
	Use:   "info [image-path]",
	Short: "Decode and print the superblock",
	Long: `Decrypt the image superblock and print its fields: format version,
compression, block size, table offsets and flag bits.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(imagePath string) error {
	key, err := resolveKey()
	if err != nil {
		return err
	}

	session, err := services.OpenImageFile(imagePath, key)
	if err != nil {
		return err
	}
	defer session.Close()

	sb := session.Superblock().Superblock
	major, minor := session.Superblock().Version()
	root := session.Superblock().RootInodeRef()

	fmt.Printf("version        %d.%d\n", major, minor)
	fmt.Printf("compression    %s (%d)\n", compressionName(sb.CompressionID), sb.CompressionID)
	fmt.Printf("block size     %d\n", sb.BlockSize)
	fmt.Printf("mod time       %v\n", session.Superblock().ModificationTime())
	fmt.Printf("inodes         %d\n", sb.InodeCount)
	fmt.Printf("fragments      %d\n", sb.FragmentCount)
	fmt.Printf("ids            %d\n", sb.IDCount)
	fmt.Printf("root inode     block %#x offset %#x\n", root.Block, root.Offset)
	fmt.Printf("bytes used     %d\n", sb.BytesUsed)
	fmt.Printf("inode table    %#x\n", sb.InodeTableStart)
	fmt.Printf("dir table      %#x\n", sb.DirTableStart)
	fmt.Printf("frag table     %#x\n", sb.FragTableStart)
	fmt.Printf("export table   %#x\n", sb.ExportTableStart)
	fmt.Printf("id table       %#x\n", sb.IDTableStart)
	fmt.Printf("xattr table    %#x\n", sb.XattrTableStart)
	fmt.Printf("flags          %+v\n", types.DecodeFlags(sb.Flags))
	return nil
}

func compressionName(id uint16) string {
	switch id {
	case types.CompressionGzip:
		return "gzip"
	case types.CompressionLzma:
		return "lzma"
	case types.CompressionLzo:
		return "lzo"
	case types.CompressionXz:
		return "xz"
	case types.CompressionLz4:
		return "lz4"
	case types.CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}
