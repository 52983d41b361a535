package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/buildtall-systems/orderflow/internal/config"
	"github.com/buildtall-systems/orderflow/internal/db"
	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List journaled orders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		database, err := openDatabase(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		orders, err := database.ListOrders(cmd.Context(), cfg.Journal.ListLimit)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(orders) == 0 {
			fmt.Fprintln(out, "No orders journaled")
			return nil
		}
		for _, o := range orders {
			state := string(o.State)
			if state == "" {
				state = "-"
			}
			fmt.Fprintf(out, "%s  %-10s  %d snapshot(s)  %s\n", o.ID, state, o.Snapshots, o.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <order-id>",
	Short: "Show the journaled snapshots of an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		database, err := openDatabase(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		out := cmd.OutOrStdout()
		latest, _ := cmd.Flags().GetBool("latest")
		if latest {
			if _, err := database.GetOrderByID(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("looking up order: %w", err)
			}
			r, err := database.LatestSnapshot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading latest snapshot: %w", err)
			}
			if r == nil {
				fmt.Fprintln(out, "No snapshots journaled")
				return nil
			}
			printSnapshot(out, r)
			return nil
		}

		records, err := database.ListSnapshots(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("listing snapshots: %w", err)
		}
		for i := range records {
			printSnapshot(out, &records[i])
		}
		return nil
	},
}

func printSnapshot(out io.Writer, r *db.SnapshotRecord) {
	items := make([]string, 0, len(r.Context.Items))
	for _, name := range r.Context.ItemNames() {
		items = append(items, fmt.Sprintf("%s=%d", name, r.Context.Items[name]))
	}
	fmt.Fprintf(out, "%3d  %-10s  status=%-10s  items=[%s]  events=%d\n",
		r.Seq, r.State, r.Context.Status, strings.Join(items, " "), len(r.Context.Events))
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	historyCmd.Flags().Bool("latest", false, "show only the most recent snapshot")
	rootCmd.AddCommand(historyCmd)
}
