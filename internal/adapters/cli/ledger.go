package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/reliefops-go/internal/adapters/persistence"
	"github.com/andrescamacho/reliefops-go/internal/application/ledger/queries"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/database"
)

// NewLedgerCommand creates the ledger command with subcommands
func NewLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Counter ledger operations",
		Long: `View changes to the session counters.

The ledger records every change to satisfaction, budget and workforce with the
value before and after, the task that caused it and the round it happened in.

Examples:
  reliefops ledger list
  reliefops ledger list --counter SATISFACTION --limit 20
  reliefops ledger list --source DELIVERY_FAILURE --session all`,
	}

	cmd.AddCommand(newLedgerListCommand())

	return cmd
}

// newLedgerListCommand creates the ledger list subcommand
func newLedgerListCommand() *cobra.Command {
	var (
		session string
		counter string
		source  string
		taskID  string
		since   string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List counter changes",
		Long: `List counter changes, newest first.

Counters:
  SATISFACTION  - Public satisfaction
  BUDGET        - Remaining budget
  WORKFORCE     - Available workforce

Sources:
  CHOICE            - Impact of a player choice
  PENALTY           - Impact of a task ending incomplete or expired
  DELIVERY_FAILURE  - Penalty for a failed delivery
  MANUAL            - Direct adjustment

Examples:
  reliefops ledger list --counter BUDGET
  reliefops ledger list --task <task-id>
  reliefops ledger list --since 2026-01-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerList(session, counter, source, taskID, since, limit, offset)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session ID, or all (default: last session)")
	cmd.Flags().StringVar(&counter, "counter", "", "Filter by counter")
	cmd.Flags().StringVar(&source, "source", "", "Filter by source")
	cmd.Flags().StringVar(&taskID, "task", "", "Filter by task ID")
	cmd.Flags().StringVar(&since, "since", "", "Only changes on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")

	return cmd
}

func runLedgerList(session, counter, source, taskID, since string, limit, offset int) error {
	sessionID, err := resolveSession(session)
	if err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	handler := queries.NewListEntriesHandler(persistence.NewGormEntryRepository(db, sessionID))

	query := &queries.ListEntriesQuery{
		Limit:  limit,
		Offset: offset,
	}
	if counter != "" {
		upper := strings.ToUpper(counter)
		query.Counter = &upper
	}
	if source != "" {
		upper := strings.ToUpper(source)
		query.Source = &upper
	}
	if taskID != "" {
		query.TaskID = &taskID
	}
	if since != "" {
		parsed, err := time.Parse("2006-01-02", since)
		if err != nil {
			return fmt.Errorf("invalid since date format: %w", err)
		}
		query.Since = &parsed
	}

	result, err := handler.Handle(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to list ledger entries: %w", err)
	}
	response := result.(*queries.ListEntriesResponse)
	if len(response.Entries) == 0 {
		fmt.Println("No ledger entries found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tCOUNTER\tSOURCE\tAMOUNT\tBEFORE\tAFTER\tTASK\tDESCRIPTION")
	for _, e := range response.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%+d\t%d\t%d\t%s\t%s\n",
			e.Round, e.Counter, e.Source, e.Amount, e.ValueBefore, e.ValueAfter,
			shortID(e.TaskID), truncate(e.Description, 50))
	}
	w.Flush()

	fmt.Printf("\nShowing %d entries\n", len(response.Entries))
	return nil
}
