// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalogComplete(t *testing.T) {
	ids := []Id{
		ConfigNotFoundId, ConfigInvalidId, NotAGitRepositoryId,
		UnmergedFilesId, ToolchainUnresolvableId, EnvironmentInstallFailedId,
		ContainerEngineNotFoundId, HookRepoCloneFailedId, HookModifiedFilesId,
	}
	for _, id := range ids {
		issue := Get(id)
		if issue == nil {
			t.Errorf("issue %d missing from catalog", id)
			continue
		}
		if issue.Id() != id {
			t.Errorf("issue %d registered under wrong id %d", id, issue.Id())
		}
		if strings.TrimSpace(string(issue.MarkdownMsg())) == "" {
			t.Errorf("issue %d has empty message", id)
		}
	}
	if len(Values()) != len(ids) {
		t.Errorf("catalog holds %d issues, want %d", len(Values()), len(ids))
	}
}

func TestRenderUsesMarkdown(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })

	var captured string
	render = func(in, stylePath string) (string, error) {
		captured = in
		return "rendered", nil
	}

	out, err := Get(ConfigNotFoundId).Render("dark")
	if err != nil {
		t.Fatal(err)
	}
	if out != "rendered" {
		t.Errorf("Render = %q", out)
	}
	if !strings.Contains(captured, "No prekit config found") {
		t.Errorf("markdown not passed through: %q", captured)
	}
}
