package cli

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buildtall-systems/orderflow/internal/db"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeScript(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "order.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestSimulate_JournalsSnapshots(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "orders.db")
	script := writeScript(t, dir, `# checkout
add book 2
add pen 1
remove pen
submit
add lamp 1
cart
`)
	logs := captureLog(t)

	out, err := execute(t, "simulate", "--db", dbPath, "--journal=true", "--keep-going=false", script)
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}

	for _, want := range []string{
		"ITEM_ADDED(lamp x1) ignored while processing",
		"book x2",
		"final state: processing (status processing), 1 item(s), 3 cart event(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
	if !strings.Contains(logs.String(), "order status: processing") {
		t.Errorf("log should report the status change, got:\n%s", logs.String())
	}

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx := context.Background()
	orders, err := database.ListOrders(ctx, 10)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 journaled order, got %d", len(orders))
	}

	records, err := database.ListSnapshots(ctx, orders[0].ID)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	// Initial snapshot plus one per accepted event; the ignored add is not journaled.
	if len(records) != 5 {
		t.Errorf("expected 5 snapshots, got %d", len(records))
	}

	out, err = execute(t, "history", "--db", dbPath, "--latest=false", orders[0].ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "items=[book=2]") {
		t.Errorf("history should show the final cart, got:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 5 {
		t.Errorf("history should print 5 snapshots, got %d:\n%s", lines, out)
	}

	out, err = execute(t, "history", "--db", dbPath, "--latest", orders[0].ID)
	if err != nil {
		t.Fatalf("history --latest: %v", err)
	}
	if strings.Count(out, "\n") != 1 || !strings.HasPrefix(out, "  5  processing") {
		t.Errorf("history --latest should print only snapshot 5, got:\n%s", out)
	}
	if !strings.Contains(out, "items=[book=2]") {
		t.Errorf("history --latest should show the final cart, got:\n%s", out)
	}

	if _, err := execute(t, "history", "--db", dbPath, "--latest", "not-an-order"); err == nil {
		t.Error("history --latest should fail for an unknown order")
	}
}

func TestSimulate_RejectsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "add book 2\nadd pen many\nsubmit\n")
	captureLog(t)

	_, err := execute(t, "simulate", "--journal=false", "--keep-going=false", script)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line, got %v", err)
	}
}

func TestSimulate_KeepGoing(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "add book 2\nrefund\nsubmit\npay\nship\n")
	logs := captureLog(t)

	out, err := execute(t, "simulate", "--journal=false", "--keep-going=true", script)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "final state: completed") {
		t.Errorf("expected completed order, got:\n%s", out)
	}
	if !strings.Contains(logs.String(), "line 2: unknown command: refund") {
		t.Errorf("log should report the unknown command, got:\n%s", logs.String())
	}
}

func TestSimulate_VerboseLogsCart(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "add book 2\nadd pen 1\nremove pen\n")
	logs := captureLog(t)
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("verbose", "false") })

	if _, err := execute(t, "simulate", "-v", "--journal=false", "--keep-going=false", script); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	for _, want := range []string{
		"cart: items=map[] events=0",
		"cart: items=map[book:2] events=1",
		"cart: items=map[book:2 pen:1] events=2",
		"cart: items=map[book:2] events=3",
	} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log should contain %q, got:\n%s", want, logs.String())
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "orderflow dev") {
		t.Errorf("unexpected version output:\n%s", out)
	}
}
