package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/paygate/internal/domain"
	"github.com/punchamoorthee/paygate/internal/store"
)

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List records waiting for approval in a file ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("ledger")
			ledger, err := store.NewFileStore(path).Load()
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(ledger.Records))
			for id, rec := range ledger.Records {
				if rec.PendingCount > 0 {
					ids = append(ids, id)
				}
			}
			sort.Strings(ids)

			out := cmd.OutOrStdout()
			for _, id := range ids {
				rec := ledger.Records[id]
				fmt.Fprintf(out, "%s\t%s\tutr=%s\tpending=%d\tcredits=%d\n",
					id, rec.Name, rec.UTR, rec.PendingCount, rec.Credits)
			}
			fmt.Fprintf(out, "%d pending\n", len(ids))
			return nil
		},
	}

	cmd.Flags().StringP("ledger", "l", "payments.json", "File ledger to read")
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [id]",
		Short: "Show the derived status and record for one id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("ledger")
			ledger, err := store.NewFileStore(path).Load()
			if err != nil {
				return err
			}

			id := domain.NormalizeID(args[0])
			rec := ledger.Records[id]
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"id":     id,
				"status": domain.Status(rec),
				"record": rec,
			})
		},
	}

	cmd.Flags().StringP("ledger", "l", "payments.json", "File ledger to read")
	return cmd
}
