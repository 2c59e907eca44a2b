package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirtabase/dirtabase/internal/colors"
	"github.com/dirtabase/dirtabase/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [KEY] [VALUE]",
	Short: "get or set a dirtabase setting (db.path, log.color, shell.path)",
	Long: `With no arguments, lists every setting. With one argument, prints that
setting's value. With two, sets it and saves the config file.

Examples:
  dirtabase config
  dirtabase config db.path
  dirtabase config db.path /var/lib/dirtabase
  dirtabase config shell.path zsh`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch len(args) {
	case 0:
		listConfig(cfg)
		return nil
	case 1:
		value, err := config.GetValue(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	default:
		if err := config.SetValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("%s %s = %s\n", colors.Bold("set"), args[0], args[1])
		return nil
	}
}

func listConfig(cfg *config.Config) {
	fmt.Printf("db.path    = %s\n", cfg.DB.Path)
	fmt.Printf("log.color  = %t\n", cfg.Log.Color)
	fmt.Printf("shell.path = %s\n", cfg.Shell.Path)
}
