package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/reliefops-go/internal/adapters/journal"
	"github.com/andrescamacho/reliefops-go/internal/application/events"
)

// NewJournalCommand creates the journal command with subcommands
func NewJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read compressed event journals",
		Long: `Read the zstd-compressed event journals written by run and serve.

Examples:
  reliefops journal show journal/<session>.jsonl.zst
  reliefops journal show journal/<session>.jsonl.zst --type task.expired`,
	}

	cmd.AddCommand(newJournalShowCommand())

	return cmd
}

func newJournalShowCommand() *cobra.Command {
	var eventType string

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the events of a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROUND\tEVENT\tSUBJECT\tDETAIL")

			count := 0
			err := journal.Read(args[0], func(e events.Event) error {
				if eventType != "" && string(e.Type) != eventType {
					return nil
				}
				count++
				subject, detail := describeEvent(e)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Round, e.Type, subject, detail)
				return nil
			})
			w.Flush()
			if err != nil {
				return err
			}
			fmt.Printf("\n%d events\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "Only show events of this type (e.g. task.created)")

	return cmd
}

func describeEvent(e events.Event) (string, string) {
	switch {
	case e.Task != nil:
		return truncate(e.Task.Title, 40), fmt.Sprintf("%s %s", e.Task.Status, e.Message)
	case e.Delivery != nil:
		d := e.Delivery
		return fmt.Sprintf("%s -> %s", d.SourceID, d.DestinationID),
			fmt.Sprintf("%s %d/%d %s %s", d.Status, d.Delivered, d.Quantity, d.Cargo, d.Reason)
	case e.Counter != nil:
		c := e.Counter
		return c.Counter, fmt.Sprintf("%+d (%d -> %d) %s", c.Amount, c.ValueBefore, c.ValueAfter, c.Description)
	default:
		return "", e.Message
	}
}
