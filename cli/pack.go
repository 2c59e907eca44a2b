package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/digest"
	"github.com/dirtabase/dirtabase/internal/pack"
)

var packCmd = &cobra.Command{
	Use:   "pack DIGEST DB OUTFILE",
	Short: "bundle a digest's reachable CAS objects into a portable pack file",
	Args:  cobra.ExactArgs(3),
	RunE:  runPack,
}

var unpackCmd = &cobra.Command{
	Use:   "unpack PACKFILE DB",
	Short: "load a pack file's objects into a DB and print its root digest",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnpack,
}

var unpackLabelFlag string

func init() {
	unpackCmd.Flags().StringVar(&unpackLabelFlag, "label", "",
		"also point this @name at the unpacked root digest")
}

func runPack(cmd *cobra.Command, args []string) error {
	d, err := digest.Parse(args[0])
	if err != nil {
		return err
	}
	db, err := archdb.Open(args[1])
	if err != nil {
		return err
	}

	data, err := pack.Pack(db, d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[2], data, 0o644); err != nil {
		return fmt.Errorf("write pack file: %w", err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), args[2])
	return nil
}

func runUnpack(cmd *cobra.Command, args []string) error {
	db, err := archdb.Open(args[1])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read pack file: %w", err)
	}
	root, err := pack.Unpack(db, data)
	if err != nil {
		return err
	}

	if unpackLabelFlag != "" {
		label, err := archdb.NewLabel(unpackLabelFlag)
		if err != nil {
			return err
		}
		if err := db.SetLabel(label, root); err != nil {
			return err
		}
	}

	fmt.Println(root.String())
	return nil
}
