package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	tea "github.com/charmbracelet/bubbletea"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
	"github.com/matzehuels/demazure/pkg/query"
)

// isolate points every config and cache location at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	return dir
}

// execute runs the CLI with args and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("demazure %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return out
}

func TestQueryCommandsJSON(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		key  string
		want any
	}{
		{"length", []string{"length", "3", "3,2,1"}, "length", float64(3)},
		{"length identity", []string{"length", "4", "1,2,3,4"}, "length", float64(0)},
		{"product", []string{"product", "1,1,2"}, "product", []any{float64(2), float64(3), float64(1)}},
		{"product kept", []string{"product", "1,1,2"}, "reduced_word", []any{float64(1), float64(2)}},
		{"product rank", []string{"product", "1", "-n", "4"}, "product", []any{float64(2), float64(1), float64(3), float64(4)}},
		{"subwords", []string{"subwords", "1,2,1", "2,1,3"}, "subwords", []any{
			[]any{float64(1)}, []any{float64(1), float64(3)}, []any{float64(3)},
		}},
		{"subwords count", []string{"subwords", "1,2,1", "2,1,3", "--count"}, "count", "3"},
		{"nonreduced", []string{"nonreduced", "1,1", "-n", "3"}, "elements", []any{
			[]any{float64(2), float64(1), float64(3)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decodeJSON(t, mustExecute(t, append(tt.args, "-o", "json", "--store", "memory")...))
			if got := out[tt.key]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestWordsText(t *testing.T) {
	isolate(t)
	out := mustExecute(t, "words", "3", "3,2,1", "--store", "memory")
	for _, want := range []string{"(1,2,1)", "(2,1,2)", "2 reduced words"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q should contain %q", out, want)
		}
	}
}

func TestImagesYAMLAndTOML(t *testing.T) {
	isolate(t)

	out := mustExecute(t, "subwords", "1,2,1", "2,1,3", "--count", "-o", "yaml", "--no-cache")
	if !strings.Contains(out, `count: "3"`) {
		t.Errorf("yaml output %q should contain the count as a string", out)
	}

	out = mustExecute(t, "images", "1,2", "-n", "3", "-o", "toml", "--no-cache")
	var res imagesResult
	if _, err := toml.Decode(out, &res); err != nil {
		t.Fatalf("decode toml %q: %v", out, err)
	}
	if res.N != 3 || len(res.Elements) != 4 {
		t.Errorf("images = %+v, want 4 elements of S_3", res)
	}
}

func TestElementsAndWeakOrder(t *testing.T) {
	isolate(t)

	out := mustExecute(t, "elements", "3", "--store", "memory")
	for _, want := range []string{"Permutation", "3,2,1", "(1,2,1)", "6 elements"} {
		if !strings.Contains(out, want) {
			t.Errorf("elements output should contain %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, "weakorder", "3", "--store", "memory")
	if !strings.HasPrefix(out, "digraph S3 {") {
		t.Errorf("weakorder output should be DOT, got %q", out)
	}
}

func TestStoreLifecycle(t *testing.T) {
	dir := isolate(t)
	storeDir := filepath.Join(dir, "cache", "demazure")

	if got := strings.TrimSpace(mustExecute(t, "store", "path")); got != storeDir {
		t.Errorf("store path = %q, want %q", got, storeDir)
	}

	out := mustExecute(t, "store", "populate", "3", "4")
	if !strings.Contains(out, "S_3") || !strings.Contains(out, "S_4") {
		t.Errorf("populate output %q should report S_3 and S_4", out)
	}

	info := decodeJSON(t, mustExecute(t, "store", "info", "-o", "json"))
	if info["backend"] != "file" || info["location"] != storeDir {
		t.Errorf("info = %v", info)
	}
	entries, _ := info["entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("entries = %v, want n=3 and n=4", entries)
	}
	first := entries[0].(map[string]any)
	if first["n"] != float64(3) || first["elements"] != float64(6) {
		t.Errorf("first entry = %v", first)
	}
	if b, _ := first["bytes"].(float64); b <= 0 {
		t.Errorf("file store should report a size, got %v", first["bytes"])
	}

	// A second process reads the stored data instead of enumerating.
	out = mustExecute(t, "store", "populate", "3")
	if !strings.Contains(out, iconStored) {
		t.Errorf("populate of a stored n should say %q: %q", iconStored, out)
	}

	mustExecute(t, "store", "rebuild", "3")
	mustExecute(t, "store", "delete", "4")
	info = decodeJSON(t, mustExecute(t, "store", "info", "-o", "json"))
	if entries, _ := info["entries"].([]any); len(entries) != 1 {
		t.Errorf("after delete entries = %v, want only n=3", entries)
	}

	out = mustExecute(t, "store", "clear")
	if !strings.Contains(out, "Cleared 1") {
		t.Errorf("clear output = %q", out)
	}
	out = mustExecute(t, "store", "clear")
	if !strings.Contains(out, "Store is empty") {
		t.Errorf("second clear output = %q", out)
	}
}

func TestStorePathUnsupported(t *testing.T) {
	isolate(t)
	_, err := execute(t, "store", "path", "--store", "memory")
	if !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("store path on memory = %v, want UNSUPPORTED", err)
	}
}

func TestCommandErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"bad n", []string{"length", "x", "1,2"}, errs.ErrCodeInvalidInput},
		{"zero n", []string{"length", "0", "1"}, errs.ErrCodeInvalidInput},
		{"not a permutation", []string{"length", "3", "1,1,2"}, errs.ErrCodeInvalidPermutation},
		{"size mismatch", []string{"words", "4", "2,1,3"}, errs.ErrCodeUnknownElement},
		{"generator too large", []string{"product", "1,3", "-n", "3"}, errs.ErrCodeInvalidGenerator},
		{"unknown format", []string{"length", "3", "1,2,3", "-o", "xml"}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "--store", "memory")...)
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestUnknownBackendFlag(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "length", "3", "1,2,3", "--store", "sqlite"); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errs.Wrap(errs.ErrCodeStoreUnavailable, io.ErrUnexpectedEOF, "open redis"))
	if !strings.Contains(buf.String(), "open redis: unexpected EOF") {
		t.Errorf("PrintError output = %q", buf.String())
	}
}

func TestBrowseModel(t *testing.T) {
	elems := []query.Element{
		{Permutation: perm.MustNew(1, 2, 3), Length: 0, Words: []perm.Word{{}}},
		{Permutation: perm.MustNew(1, 3, 2), Length: 1, Words: []perm.Word{{2}}},
		{Permutation: perm.MustNew(2, 1, 3), Length: 1, Words: []perm.Word{{1}}},
		{Permutation: perm.MustNew(2, 3, 1), Length: 2, Words: []perm.Word{{1, 2}}},
		{Permutation: perm.MustNew(3, 1, 2), Length: 2, Words: []perm.Word{{2, 1}}},
		{Permutation: perm.MustNew(3, 2, 1), Length: 3, Words: []perm.Word{{1, 2, 1}, {2, 1, 2}}},
	}
	var m tea.Model = NewBrowseModel(3, elems)
	press := func(key string) {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}

	press("j")
	press("j")
	if got := m.(BrowseModel).Selected().Permutation; !got.Equal(perm.MustNew(2, 1, 3)) {
		t.Errorf("after two steps selected %s", got)
	}
	press("l")
	if got := m.(BrowseModel).Cursor; got != 3 {
		t.Errorf("next length should jump to index 3, got %d", got)
	}
	press("G")
	view := m.View()
	if !strings.Contains(view, "2 reduced words") || !strings.Contains(view, "(2,1,2)") {
		t.Errorf("view should list the words of w0:\n%s", view)
	}
	press("k")
	press("h")
	if got := m.(BrowseModel).Cursor; got != 1 {
		t.Errorf("previous length should jump to index 1, got %d", got)
	}
	press("j")
	press("j")
	press("j")
	press("j")
	press("j")
	press("j")
	if got := m.(BrowseModel).Cursor; got != 5 {
		t.Errorf("cursor should stop at the last element, got %d", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}
