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
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/database"
)

// NewHistoryCommand creates the history command with subcommands
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect finished tasks, deliveries and logs",
		Long: `Inspect what past sessions stored in the database.

Every command defaults to the last session run on this machine; pass
--session <id> for another one or --session all for every session.

Examples:
  reliefops history tasks
  reliefops history tasks --status EXPIRED --type DEMAND
  reliefops history deliveries --status FAILED
  reliefops history logs --level ERROR --limit 20`,
	}

	cmd.AddCommand(newHistoryTasksCommand())
	cmd.AddCommand(newHistoryDeliveriesCommand())
	cmd.AddCommand(newHistoryLogsCommand())

	return cmd
}

func newHistoryTasksCommand() *cobra.Command {
	var (
		session  string
		status   string
		taskType string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List finished tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := resolveSession(session)
			if err != nil {
				return err
			}
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			repo := persistence.NewGormTaskArchiveRepository(db)
			ctx := context.Background()
			tasks, err := repo.Find(ctx, persistence.TaskArchiveQuery{
				Session: sessionID,
				Status:  strings.ToUpper(status),
				Type:    strings.ToUpper(taskType),
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No finished tasks found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROUND\tTYPE\tSTATUS\tFACILITY\tTITLE\tIMPACTS")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
					shortID(t.ID), t.FinishedRound, t.Type, t.Status, t.FacilityName,
					truncate(t.Title, 40), strings.Join(t.Impacts, ", "))
			}
			w.Flush()

			counts, err := repo.CountByStatus(ctx, sessionID)
			if err != nil {
				return err
			}
			fmt.Printf("\nCompleted: %d  Incomplete: %d  Expired: %d\n",
				counts["COMPLETED"], counts["INCOMPLETE"], counts["EXPIRED"])
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session ID, or all (default: last session)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (COMPLETED, INCOMPLETE, EXPIRED)")
	cmd.Flags().StringVar(&taskType, "type", "", "Filter by task type")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of tasks to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of tasks to skip")

	return cmd
}

func newHistoryDeliveriesCommand() *cobra.Command {
	var (
		session string
		status  string
		taskID  string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "List finished deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := resolveSession(session)
			if err != nil {
				return err
			}
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			entries, err := persistence.NewGormDeliveryHistoryRepository(db).Find(context.Background(), persistence.DeliveryHistoryQuery{
				Session: sessionID,
				Status:  strings.ToUpper(status),
				TaskID:  taskID,
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No finished deliveries found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROUND\tROUTE\tCARGO\tDELIVERED\tSTATUS\tVEHICLE\tREASON")
			for _, d := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s -> %s\t%s\t%d/%d\t%s\t%s\t%s\n",
					shortID(d.ID), d.Round, d.SourceID, d.DestinationID, d.Cargo,
					d.Delivered, d.Quantity, d.Status, d.VehicleID, truncate(d.Reason, 40))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session ID, or all (default: last session)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (COMPLETED, FAILED, CANCELLED)")
	cmd.Flags().StringVar(&taskID, "task", "", "Filter by owning task ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of deliveries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of deliveries to skip")

	return cmd
}

func newHistoryLogsCommand() *cobra.Command {
	var (
		session string
		level   string
		since   string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show persisted session logs",
		Long: `Show log entries written with logging.persist enabled, newest first.

Examples:
  reliefops history logs --level ERROR
  reliefops history logs --since 15m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := resolveSession(session)
			if err != nil {
				return err
			}
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			var levelFilter *string
			if level != "" {
				upper := strings.ToUpper(level)
				levelFilter = &upper
			}
			var sinceFilter *time.Time
			if since != "" {
				d, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since duration: %w", err)
				}
				t := time.Now().Add(-d)
				sinceFilter = &t
			}

			repo := persistence.NewGormSimulationLogRepository(db, nil, 0)
			logs, err := repo.GetLogs(context.Background(), sessionID, limit, offset, levelFilter, sinceFilter)
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Println("No logs found")
				return nil
			}
			for _, l := range logs {
				fmt.Printf("%s [%s] %s", l.Timestamp.Format(time.RFC3339), l.Level, l.Message)
				if len(l.Metadata) > 0 {
					fmt.Printf(" %v", l.Metadata)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session ID, or all (default: last session)")
	cmd.Flags().StringVar(&level, "level", "", "Filter by level (DEBUG, INFO, WARNING, ERROR)")
	cmd.Flags().StringVar(&since, "since", "", "Only logs newer than this duration (e.g. 15m)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")

	return cmd
}
