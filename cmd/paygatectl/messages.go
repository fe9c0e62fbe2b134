package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/paygate/internal/catalog"
)

func applyMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply-messages",
		Short: "Merge a MESSAGE column from a CSV into the catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			matchesPath, _ := cmd.Flags().GetString("matches")
			messagesPath, _ := cmd.Flags().GetString("messages")
			return applyMessages(cmd, matchesPath, messagesPath)
		},
	}

	cmd.Flags().StringP("matches", "m", "matches.json", "Catalog document to update in place")
	cmd.Flags().StringP("messages", "c", "messages.csv", "CSV with ID and MESSAGE columns")

	return cmd
}

func applyMessages(cmd *cobra.Command, matchesPath, messagesPath string) error {
	doc, err := os.ReadFile(matchesPath)
	if err != nil {
		return fmt.Errorf("%s not found: %w", matchesPath, err)
	}
	f, err := os.Open(messagesPath)
	if err != nil {
		return fmt.Errorf("%s not found: %w", messagesPath, err)
	}
	defer f.Close()

	rows, err := catalog.ReadMessages(f)
	if err != nil {
		return err
	}
	out, applied, err := catalog.ApplyMessages(doc, rows)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(matchesPath), ".matches.*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), matchesPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d of %d messages to %s\n", applied, len(rows), matchesPath)
	return nil
}
