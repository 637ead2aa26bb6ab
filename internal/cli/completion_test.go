package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeRoot runs the root command with an empty config file.
func executeRoot(t *testing.T, out *bytes.Buffer, args ...string) error {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	return root.Execute()
}

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "fish", "powershell", "zsh"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			if err := executeRoot(t, &out, "completion", shell); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), appName) {
				t.Errorf("%s script does not mention %s", shell, appName)
			}
		})
	}
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	if err := executeRoot(t, &bytes.Buffer{}, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestCompleteThemes(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.cfg.Layout.Themes = []string{"light", "dark", "Matcha", "midnight"}

	got, directive := c.completeThemes(&cobra.Command{}, nil, "m")
	if want := []string{"Matcha", "midnight"}; !slices.Equal(got, want) {
		t.Errorf("completeThemes(m) = %v, want %v", got, want)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v, want NoFileComp", directive)
	}
}

func TestCompleteFontNames(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	got, _ := completeFontNames(cmd, nil, "k")
	if !slices.Contains(got, "Kosugi Maru") {
		t.Errorf("completeFontNames(k) = %v, want Kosugi Maru", got)
	}
	for _, name := range got {
		if !strings.HasPrefix(strings.ToLower(name), "k") {
			t.Errorf("unexpected completion %q", name)
		}
	}

	all, _ := completeFontNames(cmd, nil, "")
	if len(all) < len(got) || !slices.Contains(all, "Zen Maru Gothic") {
		t.Errorf("completeFontNames(\"\") = %v", all)
	}
}
