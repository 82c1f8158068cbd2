package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jaekwang-park/listo/internal/app"
	"github.com/jaekwang-park/listo/internal/cli"
	"github.com/jaekwang-park/listo/internal/config"
	"github.com/jaekwang-park/listo/internal/fakeapi"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type env struct {
	t      *testing.T
	srv    *httptest.Server
	userID string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := httptest.NewServer(fakeapi.NewRouter(fakeapi.NewStore(), discardLogger))
	t.Cleanup(srv.Close)
	return &env{t: t, srv: srv, userID: "owner"}
}

func (e *env) as(userID string) *env {
	return &env{t: e.t, srv: e.srv, userID: userID}
}

func (e *env) builder() cli.Builder {
	return func(ctx context.Context, interactive bool) (*app.App, func(), error) {
		cfg := config.Defaults()
		cfg.APIBaseURL = e.srv.URL
		cfg.ShareBaseURL = "https://listo.example.com"
		cfg.AuthMode = config.AuthModeDev
		cfg.DevUserID = e.userID
		cfg.SessionFile = filepath.Join(e.t.TempDir(), "session.json")
		a, err := app.New(ctx, cfg, discardLogger)
		return a, nil, err
	}
}

func (e *env) run(args ...string) (stdout []byte, err error) {
	e.t.Helper()
	cmd := cli.NewRootCmd(e.builder())
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return outBuf.Bytes(), err
}

func (e *env) mustJSON(args ...string) map[string]any {
	e.t.Helper()
	stdout, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("listo %v failed: %v", args, err)
	}
	var out map[string]any
	if err := json.Unmarshal(stdout, &out); err != nil {
		e.t.Fatalf("listo %v: decode %q: %v", args, stdout, err)
	}
	return out
}

func (e *env) mustList(args ...string) []any {
	e.t.Helper()
	stdout, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("listo %v failed: %v", args, err)
	}
	var out []any
	if err := json.Unmarshal(stdout, &out); err != nil {
		e.t.Fatalf("listo %v: decode %q: %v", args, stdout, err)
	}
	return out
}

func contents(out map[string]any) []string {
	items, _ := out["items"].([]any)
	var got []string
	for _, it := range items {
		got = append(got, it.(map[string]any)["content"].(string))
	}
	return got
}

func itemID(t *testing.T, out map[string]any, content string) string {
	t.Helper()
	items, _ := out["items"].([]any)
	for _, it := range items {
		m := it.(map[string]any)
		if m["content"] == content {
			return m["id"].(string)
		}
	}
	t.Fatalf("no item %q in %v", content, out)
	return ""
}

func TestCLI_ChecklistWorkflow(t *testing.T) {
	e := newEnv(t)

	cl := e.mustJSON("lists", "create", "Packing")
	id, _ := cl["id"].(string)
	if id == "" || cl["title"] != "Packing" {
		t.Fatalf("create returned %v", cl)
	}

	for _, content := range []string{"A", "B", "C"} {
		e.mustJSON("items", "add", id, content)
	}
	out := e.mustJSON("lists", "show", id)
	if got := contents(out); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("items=%v", got)
	}

	out = e.mustJSON("items", "move", id, itemID(t, out, "A"), "2")
	if got := contents(out); !slices.Equal(got, []string{"B", "C", "A"}) {
		t.Errorf("after move=%v, want [B C A]", got)
	}
	out = e.mustJSON("lists", "show", id)
	if got := contents(out); !slices.Equal(got, []string{"B", "C", "A"}) {
		t.Errorf("server order after move=%v", got)
	}

	e.mustJSON("items", "check", id, itemID(t, out, "C"))
	e.mustJSON("items", "edit", id, itemID(t, out, "B"), "Bread")
	out = e.mustJSON("items", "clear", id)
	if out["deleted"] != float64(1) {
		t.Errorf("deleted=%v, want 1", out["deleted"])
	}
	out = e.mustJSON("lists", "show", id)
	if got := contents(out); !slices.Equal(got, []string{"Bread", "A"}) {
		t.Errorf("after clear=%v, want [Bread A]", got)
	}
	for i, it := range out["items"].([]any) {
		if it.(map[string]any)["ordering"] != float64(i) {
			t.Errorf("ordering of %v not dense", it)
		}
	}

	out = e.mustJSON("items", "check-all", id)
	for _, it := range out["items"].([]any) {
		if it.(map[string]any)["checked"] != true {
			t.Errorf("item %v not checked", it)
		}
	}

	lists := e.mustList("lists", "ls")
	if len(lists) != 1 {
		t.Errorf("ls returned %d lists", len(lists))
	}
	e.mustJSON("lists", "delete", id)
	if lists := e.mustList("lists", "ls"); len(lists) != 0 {
		t.Errorf("ls after delete returned %v", lists)
	}
}

func TestCLI_LockedListRefusesItemEdits(t *testing.T) {
	e := newEnv(t)
	id := e.mustJSON("lists", "create", "Frozen")["id"].(string)
	e.mustJSON("items", "add", id, "Milk")
	e.mustJSON("lists", "lock", id)

	_, err := e.run("items", "add", id, "Eggs")
	if err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("expected locked error, got %v", err)
	}
	if _, err := e.run("lists", "rename", id, "Thawed"); err == nil {
		t.Error("rename of a locked list should fail")
	}

	e.mustJSON("lists", "unlock", id)
	e.mustJSON("items", "add", id, "Eggs")
}

func TestCLI_Sharing(t *testing.T) {
	owner := newEnv(t)
	guest := owner.as("guest")

	id := owner.mustJSON("lists", "create", "Groceries")["id"].(string)
	share := owner.mustJSON("lists", "share", id)
	link, _ := share["link"].(string)
	if !strings.HasPrefix(link, "https://listo.example.com/share/") {
		t.Fatalf("link=%q", link)
	}

	joined := guest.mustJSON("lists", "join", link)
	if joined["joined"] != share["code"] {
		t.Errorf("joined=%v, want %v", joined["joined"], share["code"])
	}
	shared := guest.mustList("lists", "shared")
	if len(shared) != 1 {
		t.Fatalf("shared lists=%v", shared)
	}

	guest.mustJSON("items", "add", "--shared", id, "Milk")
	if got := contents(owner.mustJSON("lists", "show", id)); !slices.Equal(got, []string{"Milk"}) {
		t.Errorf("owner sees %v", got)
	}

	matches := guest.mustList("lists", "find", "groc")
	if len(matches) != 1 || matches[0].(map[string]any)["shared"] != true {
		t.Errorf("find=%v", matches)
	}

	guest.mustJSON("lists", "leave", id)
	if shared := guest.mustList("lists", "shared"); len(shared) != 0 {
		t.Errorf("shared after leave=%v", shared)
	}
}

func TestCLI_Errors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown checklist", []string{"lists", "show", "missing"}, "not found"},
		{"login in dev mode", []string{"login", "--email", "a@example.com", "--password", "pw"}, "LISTO_AUTH_MODE=bearer"},
		{"bad share code", []string{"lists", "join", "https://listo.example.com/share/"}, "invalid share code"},
		{"missing args", []string{"items", "add"}, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCLI_Pretty(t *testing.T) {
	e := newEnv(t)

	stdout, err := e.run("--pretty", "lists", "create", "Indented")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !bytes.Contains(stdout, []byte("\n  \"title\": \"Indented\"")) {
		t.Errorf("expected indented JSON, got %s", stdout)
	}
}
