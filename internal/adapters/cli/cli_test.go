package cli_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/adapters/cli"
	"github.com/andrescamacho/reliefops-go/internal/adapters/journal"
	"github.com/andrescamacho/reliefops-go/internal/application/events"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := cli.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	return root.Execute()
}

func TestCatalogValidate_AcceptsShippedCatalog(t *testing.T) {
	err := execute(t, "catalog", "validate", filepath.Join("..", "..", "..", "configs", "catalog.yaml"))
	assert.NoError(t, err)
}

func TestCatalogValidate_RejectsBrokenCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`templates:
  - id: famine
    title: Famine
    type: FAMINE
`), 0o644))

	err := execute(t, "catalog", "validate", path)
	assert.EqualError(t, err, "catalog validation failed")
}

func TestJournalShow_ReadsJournal(t *testing.T) {
	dir := t.TempDir()
	w, err := journal.Open(dir, "cli-session", "fastest")
	require.NoError(t, err)
	require.NoError(t, w.Write(events.Event{Type: events.RoundAdvanced, Round: 1, Timestamp: time.Now()}))
	require.NoError(t, w.Close())

	assert.NoError(t, execute(t, "journal", "show", w.Path()))
	assert.Error(t, execute(t, "journal", "show", filepath.Join(dir, "missing.jsonl.zst")))
}

func TestRun_RejectsNonPositiveRounds(t *testing.T) {
	err := execute(t, "run", "--rounds", "0", "--no-persist", "--no-journal",
		"--config", filepath.Join("..", "..", "..", "configs", "config.yaml"))
	assert.EqualError(t, err, "--rounds must be positive")
}
