package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/metricsys/pkg/config"
	"mercator-hq/metricsys/pkg/snapshot"
	"mercator-hq/metricsys/pkg/telemetry/logging"
)

// writeTestConfig writes a config that logs only errors and stores
// snapshots with the given driver under a temporary directory.
func writeTestConfig(t *testing.T, driver string) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`metrics:
  enabled: true
  namespace: "test_"
  categories: [process, go, snapshot]
logging:
  level: error
snapshot:
  schedule: "@every 1s"
storage:
  driver: %s
  path: %s
`, driver, filepath.Join(dir, "data", "snapshots.db"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	verbose = false
	observeFlags.category = ""
	observeFlags.output = "text"
	snapshotsFlags.output = "text"
	snapshotsFlags.since = 0
	snapshotsFlags.limit = 0
	snapshotsFlags.olderThan = 0
	runFlags.logLevel = ""
	runFlags.noWatch = false
	runFlags.dryRun = false

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	cmd, _, err := rootCmd.Find(args)
	if err != nil {
		t.Fatalf("Find(%v) error = %v", args, err)
	}
	cmd.SetContext(ctx)

	err = rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

// assertContains reports an error when out lacks any of want.
func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	assertContains(t, out, "metricsys "+Version, "Go Version:")
}

func TestObserveCommand_JSON(t *testing.T) {
	cfg := writeTestConfig(t, "memory")

	out, err := execute(t, context.Background(), "observe", "--config", cfg, "--category", "go", "--output", "json")
	if err != nil {
		t.Fatalf("observe error = %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(records) == 0 {
		t.Fatal("expected observations")
	}

	found := false
	for _, r := range records {
		if r["category"] != "go" {
			t.Errorf("category = %v, want go", r["category"])
		}
		if r["name"] == "goroutines" {
			found = true
		}
	}
	if !found {
		t.Errorf("goroutines missing from %s", out)
	}
}

func TestObserveCommand_CSV(t *testing.T) {
	cfg := writeTestConfig(t, "memory")

	out, err := execute(t, context.Background(), "observe", "--config", cfg, "--output", "csv")
	if err != nil {
		t.Fatalf("observe error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected a header and rows, got %q", out)
	}
	if lines[0] != "CATEGORY,NAME,LABELS,VALUE" {
		t.Errorf("header = %q", lines[0])
	}
}

func TestObserveCommand_Errors(t *testing.T) {
	cfg := writeTestConfig(t, "memory")

	if _, err := execute(t, context.Background(), "observe", "--config", cfg, "--output", "xml"); err == nil {
		t.Error("expected an error for an unknown output format")
	}
	if _, err := execute(t, context.Background(), "observe", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestSnapshotsCommands(t *testing.T) {
	cfg := writeTestConfig(t, "sqlite")
	ctx := context.Background()

	out, err := execute(t, ctx, "snapshots", "take", "--config", cfg)
	if err != nil {
		t.Fatalf("snapshots take error = %v", err)
	}
	assertContains(t, out, "Snapshot")

	out, err = execute(t, ctx, "snapshots", "list", "--config", cfg, "--output", "json")
	if err != nil {
		t.Fatalf("snapshots list error = %v", err)
	}

	var summaries []snapshot.Summary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(summaries))
	}
	if summaries[0].ObservationCount <= 0 {
		t.Errorf("ObservationCount = %d, want > 0", summaries[0].ObservationCount)
	}
	id := summaries[0].ID

	out, err = execute(t, ctx, "snapshots", "show", id, "--config", cfg, "--output", "json")
	if err != nil {
		t.Fatalf("snapshots show error = %v", err)
	}

	var shown struct {
		ID           string           `json:"id"`
		Observations []map[string]any `json:"observations"`
	}
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if shown.ID != id {
		t.Errorf("shown ID = %s, want %s", shown.ID, id)
	}
	if len(shown.Observations) != summaries[0].ObservationCount {
		t.Errorf("shown %d observations, want %d", len(shown.Observations), summaries[0].ObservationCount)
	}

	out, err = execute(t, ctx, "snapshots", "show", id, "--config", cfg)
	if err != nil {
		t.Fatalf("snapshots show error = %v", err)
	}
	assertContains(t, out, "Snapshot "+id, "CATEGORY")

	if _, err := execute(t, ctx, "snapshots", "show", "missing", "--config", cfg); err == nil || !strings.Contains(err.Error(), "no snapshot") {
		t.Errorf("show missing error = %v, want a not-found error", err)
	}

	time.Sleep(5 * time.Millisecond)
	out, err = execute(t, ctx, "snapshots", "prune", "--config", cfg, "--older-than", "1ms")
	if err != nil {
		t.Fatalf("snapshots prune error = %v", err)
	}
	assertContains(t, out, "Deleted 1 snapshots")

	out, err = execute(t, ctx, "snapshots", "list", "--config", cfg)
	if err != nil {
		t.Fatalf("snapshots list error = %v", err)
	}
	if out != "ID  TAKEN AT  OBSERVATIONS\n" {
		t.Errorf("list after prune = %q", out)
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	cfg := writeTestConfig(t, "memory")

	out, err := execute(t, context.Background(), "run", "--config", cfg, "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	assertContains(t, out, "Configuration valid")
}

func TestRunCommand_StopsOnCancel(t *testing.T) {
	cfg := writeTestConfig(t, "memory")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	t.Cleanup(func() { runCmd.SetContext(context.Background()) })

	out, err := execute(t, ctx, "run", "--config", cfg, "--no-watch")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	assertContains(t, out,
		"Metrics initialized (categories: go, process, snapshot)",
		"driver: memory",
		"Shutting down",
	)
}

func TestApplyReload(t *testing.T) {
	logger, err := logging.New(logging.Config{Level: "info", Writer: io.Discard})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	startup := config.NewDefaultConfig()
	rec, err := snapshot.NewRecorder(staticSource{}, newNopStore(), nil, "", logger.Slog())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	scheduler := snapshot.NewScheduler(rec, startup.Snapshot, logger.Slog())

	next := config.NewDefaultConfig()
	next.Logging.Level = "debug"

	runFlags.logLevel = ""
	verbose = false
	applyReload(logger, scheduler, startup, next)

	if got := logger.Level().String(); got != "DEBUG" {
		t.Errorf("level after reload = %s, want DEBUG", got)
	}
}
