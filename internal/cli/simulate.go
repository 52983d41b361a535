package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/buildtall-systems/orderflow/internal/actor"
	"github.com/buildtall-systems/orderflow/internal/commands"
	"github.com/buildtall-systems/orderflow/internal/config"
	"github.com/buildtall-systems/orderflow/internal/db"
	"github.com/buildtall-systems/orderflow/internal/fsm"
	"github.com/buildtall-systems/orderflow/internal/order"
	"github.com/buildtall-systems/orderflow/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [script]",
	Short: "Drive one order through a script of events",
	Long: `Read commands (add <item> <qty>, remove <item>, submit, pay, ship, status, cart, history)
one per line from a script file or stdin and apply them to a new order.
Every published snapshot is journaled unless journaling is disabled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Bool("journal", true, "journal published snapshots to the database")
	simulateCmd.Flags().Bool("keep-going", false, "log malformed lines and continue instead of failing")
	_ = viper.BindPFlag("journal.enabled", simulateCmd.Flags().Lookup("journal"))
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	keepGoing, _ := cmd.Flags().GetBool("keep-going")

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := order.NewStore()

	statusSub := store.SelectField(s, order.Status).Subscribe(func(st fsm.Status) {
		log.Printf("order status: %s", st)
	})
	defer statusSub.Unsubscribe()

	if cfg.Verbose {
		cart, err := store.SelectMany(s, order.FieldItems, order.FieldEvents)
		if err != nil {
			return fmt.Errorf("selecting cart: %w", err)
		}
		cartSub := cart.Subscribe(func(r store.Record) {
			events, _ := r[order.FieldEvents].([]fsm.Event)
			log.Printf("cart: items=%v events=%d", r[order.FieldItems], len(events))
		})
		defer cartSub.Unsubscribe()
	}

	var orderID string
	var journalErr error
	if cfg.Journal.Enabled {
		database, err := openDatabase(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		o, err := database.CreateOrder(ctx)
		if err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		orderID = o.ID
		log.Printf("journaling order %s to %s", orderID, cfg.Database.Path)

		journalSub := s.Snapshots().Subscribe(func(snap actor.OrderSnapshot) {
			rec, err := database.RecordSnapshot(ctx, orderID, snap)
			if err != nil {
				log.Printf("failed to journal snapshot: %v", err)
				if journalErr == nil {
					journalErr = err
				}
				return
			}
			if cfg.Verbose {
				log.Printf("journaled snapshot %d: %s", rec.Seq, rec.State)
			}
		})
		defer journalSub.Unsubscribe()
	}

	out := cmd.OutOrStdout()
	err = s.Run(func(s *order.Store) error {
		return runScript(ctx, s, in, out, keepGoing)
	})
	if err != nil {
		return err
	}
	if journalErr != nil {
		return fmt.Errorf("journaling snapshots: %w", journalErr)
	}

	snap := s.Snapshot()
	if orderID != "" {
		fmt.Fprintf(out, "order %s\n", orderID)
	}
	fmt.Fprintf(out, "final state: %s (status %s), %d item(s), %d cart event(s)\n",
		snap.Value, snap.Context.Status, len(snap.Context.Items), len(snap.Context.Events))
	return nil
}

func runScript(ctx context.Context, s *order.Store, in io.Reader, out io.Writer, keepGoing bool) error {
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++

		c := commands.Parse(scanner.Text())
		if c == nil {
			continue
		}

		var err error
		if !c.IsValid() {
			err = fmt.Errorf("unknown command: %s", c.Name)
		} else if result := commands.Execute(s, c); result.Error != nil {
			err = result.Error
		} else {
			fmt.Fprintln(out, result.Message)
		}

		if err != nil {
			if !keepGoing {
				return fmt.Errorf("line %d: %w", line, err)
			}
			log.Printf("line %d: %v", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	return nil
}

func openDatabase(path string) (*db.DB, error) {
	database, err := db.OpenJournal(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	return database, nil
}
