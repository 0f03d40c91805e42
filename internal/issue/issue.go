// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigInvalidId
	NotAGitRepositoryId
	UnmergedFilesId
	ToolchainUnresolvableId
	EnvironmentInstallFailedId
	ContainerEngineNotFoundId
	HookRepoCloneFailedId
	HookModifiedFilesId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to look up the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No prekit config found!

We searched for a .prekit.yaml but couldn't find one at the repository root.

## Things you can try:
- Create a starter config:
~~~
$ prekit init
~~~

- Or run from the repository that carries one:
~~~
$ cd /path/to/your/project
$ prekit run
~~~

## Example config:
~~~yaml
repos:
  - repo: https://github.com/psf/black
    rev: 24.4.2
    hooks:
      - id: black
  - repo: local
    hooks:
      - id: go-vet
        name: go vet
        entry: go vet ./...
        language: system
        pass_filenames: false
~~~`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid prekit config!

Your .prekit.yaml contains syntax errors or values the schema rejects.

## Common issues:
- Invalid YAML syntax (indentation, missing colons)
- Unknown field names
- A hook without the required id
- An unknown language tag

## Things you can try:
- Check the error message above for the offending field
- Validate without running anything:
~~~
$ prekit validate
~~~`,
	}

	notAGitRepositoryIssue = &Issue{
		id: NotAGitRepositoryId,
		mdMsg: `
# Not a git repository!

prekit needs a git worktree to discover staged and changed files.

## Things you can try:
- Run from inside a repository:
~~~
$ cd /path/to/your/project
$ prekit run
~~~

- Or initialize one:
~~~
$ git init
~~~`,
	}

	unmergedFilesIssue = &Issue{
		id: UnmergedFilesId,
		mdMsg: `
# Unmerged files present!

Hooks cannot run safely while the index holds conflict markers.

## Things you can try:
- Resolve the conflicts, then stage the results:
~~~
$ git status
$ git add <resolved files>
~~~

- Then rerun:
~~~
$ prekit run
~~~`,
	}

	toolchainUnresolvableIssue = &Issue{
		id: ToolchainUnresolvableId,
		mdMsg: `
# Toolchain could not be resolved!

No installed or downloadable runtime satisfies the hook's language_version.

## Things you can try:
- Loosen the version request in .prekit.yaml:
~~~yaml
hooks:
  - id: black
    language_version: "3.12"   # instead of an exact patch release
~~~

- Install the runtime yourself and ensure it is on PATH
- For python, install uv so prekit can fetch interpreters:
~~~
$ curl -LsSf https://astral.sh/uv/install.sh | sh
~~~`,
	}

	environmentInstallFailedIssue = &Issue{
		id: EnvironmentInstallFailedId,
		mdMsg: `
# Environment install failed!

Building the hook's environment (venv, npm prefix, go install) did not
succeed. The partial install was discarded; nothing is cached.

## Things you can try:
- Rerun with verbose output to see the installer's own error:
~~~
$ prekit run --verbose
~~~

- Check network access; installs download packages
- Drop the cached state and rebuild from scratch:
~~~
$ prekit clean
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

A docker or docker_image hook needs a working container engine.

## Supported container engines:
- **Docker**
- **Podman**

## Things you can try:
- Install Docker: https://docs.docker.com/get-docker/
- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Check the daemon is running:
~~~
$ docker info
~~~`,
	}

	hookRepoCloneFailedIssue = &Issue{
		id: HookRepoCloneFailedId,
		mdMsg: `
# Hook repository clone failed!

The hook source could not be fetched at the pinned revision.

## Common causes:
- The rev does not exist (typo, or the tag was moved)
- Network or authentication failure
- The repository URL is wrong

## Things you can try:
- Verify the repo and rev pair by hand:
~~~
$ git ls-remote <repo-url> <rev>
~~~

- Pin to a full tag or commit hash rather than a branch name`,
	}

	hookModifiedFilesIssue = &Issue{
		id: HookModifiedFilesId,
		mdMsg: `
# Hooks modified files!

A fixer hook rewrote some of the files it checked. The changes are in
your worktree but not staged, so the run counts as failed.

## Things you can try:
- Review and stage the fixes, then rerun:
~~~
$ git add -u
$ prekit run
~~~`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():           configNotFoundIssue,
		configInvalidIssue.Id():            configInvalidIssue,
		notAGitRepositoryIssue.Id():        notAGitRepositoryIssue,
		unmergedFilesIssue.Id():            unmergedFilesIssue,
		toolchainUnresolvableIssue.Id():    toolchainUnresolvableIssue,
		environmentInstallFailedIssue.Id(): environmentInstallFailedIssue,
		containerEngineNotFoundIssue.Id():  containerEngineNotFoundIssue,
		hookRepoCloneFailedIssue.Id():      hookRepoCloneFailedIssue,
		hookModifiedFilesIssue.Id():        hookModifiedFilesIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
