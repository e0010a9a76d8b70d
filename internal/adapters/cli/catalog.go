package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/reliefops-go/internal/adapters/catalog"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// NewCatalogCommand creates the catalog command with subcommands
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Task template catalog operations",
		Long: `Validate and inspect task template catalogs.

Catalogs are YAML files holding the templates a session can fire. Every file
is checked against the catalog JSON schema and every template against the
authoring rules before a session starts.

Examples:
  reliefops catalog validate
  reliefops catalog validate configs/catalog.yaml extra/
  reliefops catalog list --type DEMAND`,
	}

	cmd.AddCommand(newCatalogValidateCommand())
	cmd.AddCommand(newCatalogListCommand())

	return cmd
}

func newCatalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [files or directories...]",
		Short: "Check catalog files",
		Long: `Check catalog files against the schema and the template rules.

Without arguments the catalog paths from config are checked. Every problem
is listed, not only the first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, files, err := loadCatalog(args)
			if err != nil {
				var invalid *catalog.ErrInvalidCatalog
				if errors.As(err, &invalid) {
					fmt.Fprintf(os.Stderr, "%s is invalid:\n", invalid.Source)
					for _, p := range invalid.Problems {
						fmt.Fprintf(os.Stderr, "  - %s\n", p)
					}
					return fmt.Errorf("catalog validation failed")
				}
				return err
			}
			fmt.Printf("✓ %d templates in %d files are valid\n", len(templates), len(files))
			return nil
		},
	}
}

func newCatalogListCommand() *cobra.Command {
	var taskType string

	cmd := &cobra.Command{
		Use:   "list [files or directories...]",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, _, err := loadCatalog(args)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tTARGET\tTRIGGERS\tROUNDS\tCHOICES")
			for _, tpl := range templates {
				if taskType != "" && !strings.EqualFold(string(tpl.Type), taskType) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					tpl.ID, tpl.Type, target(tpl), triggerSummary(tpl), tpl.RoundsRemaining, len(tpl.Choices))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&taskType, "type", "", "Only list templates of this task type")

	return cmd
}

// loadCatalog reads the given paths, or the configured catalog when none are given
func loadCatalog(paths []string) ([]*task.Template, []string, error) {
	if len(paths) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, err
		}
		paths = cfg.Catalog.Paths
	}
	files, err := catalog.ExpandPaths(paths)
	if err != nil {
		return nil, nil, err
	}
	loader, err := catalog.NewLoader()
	if err != nil {
		return nil, nil, err
	}
	templates, err := loader.LoadFiles(files...)
	return templates, files, err
}

func target(tpl *task.Template) string {
	switch {
	case tpl.Global:
		return "global"
	case tpl.SpecificFacilityID != "":
		return string(tpl.SpecificFacilityID)
	case tpl.AutoSelectFacility:
		return "each " + string(tpl.TargetFacilityType)
	default:
		return string(tpl.TargetFacilityType)
	}
}

func triggerSummary(tpl *task.Template) string {
	kinds := make([]string, 0, len(tpl.Triggers))
	for _, t := range tpl.Triggers {
		kinds = append(kinds, string(t.Kind))
	}
	joiner := " | "
	if tpl.RequireAllTriggers {
		joiner = " & "
	}
	return strings.Join(kinds, joiner)
}
