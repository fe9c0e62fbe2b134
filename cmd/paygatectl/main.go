package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "paygatectl",
		Short:   "Offline maintenance for the paygate catalog and ledger",
		Version: Version,
	}

	rootCmd.AddCommand(applyMessagesCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
