// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"runtime"

	"github.com/prekit/prekit/internal/hook"
)

// Group is one set of hooks sharing an environment identity. Installs
// for one group are issued from a single task; the store's per-key lock
// would serialize concurrent same-key installs anyway, but issuing them
// together avoids parked waiters.
type Group struct {
	// Key is the preliminary environment identity (language, requested
	// version, dependency set). The concrete store key is derived later
	// from the resolved toolchain version.
	Key hook.EnvironmentKey
	// NeedsEnv is false for languages that run without an environment;
	// such groups skip the install phase.
	NeedsEnv bool
	// Hooks holds declaration indices, ascending.
	Hooks []int
}

// groupHooks computes connected components over environment identity.
// Hooks and keys are handled as small integer indices into the input
// slice plus an interning table. Output order follows each group's
// first-declaration index, so grouping and reporting are stable across
// runs.
func groupHooks(hooks []*hook.Hook) []Group {
	var groups []Group
	interned := make(map[string]int)

	for i, h := range hooks {
		if !h.Language.SupportsEnvironment() {
			groups = append(groups, Group{
				Key:      hook.NewEnvironmentKey(h.Language, "none", nil),
				NeedsEnv: false,
				Hooks:    []int{i},
			})
			continue
		}
		key := hook.NewEnvironmentKey(h.Language, h.LanguageVersion, h.Dependencies())
		id := key.ID()
		if gi, ok := interned[id]; ok {
			groups[gi].Hooks = append(groups[gi].Hooks, i)
			continue
		}
		interned[id] = len(groups)
		groups = append(groups, Group{Key: key, NeedsEnv: true, Hooks: []int{i}})
	}
	return groups
}

// File-batch sizing. A batch's combined argument bytes stay under the
// platform command-length limit, and batches hold at least a handful of
// files so tiny batches do not multiply process-spawn overhead.
const minFilesPerBatch = 4

func maxCommandLength() int {
	if runtime.GOOS == "windows" {
		return 32768 - 2048
	}
	return 4096
}

// partitionFiles splits files into ordered batches. The union of the
// batches equals the input, order-preserving and duplicate-free. Each
// batch stays under maxLen minus the fixed command prefix, and the file
// count per batch is balanced toward targetBatches so batches can run
// concurrently.
func partitionFiles(files []string, fixedLen, maxLen, targetBatches int) [][]string {
	if len(files) == 0 {
		return [][]string{nil}
	}
	budget := maxLen - fixedLen
	if budget < 1 {
		budget = 1
	}
	if targetBatches < 1 {
		targetBatches = 1
	}
	perBatch := (len(files) + targetBatches - 1) / targetBatches
	if perBatch < minFilesPerBatch {
		perBatch = minFilesPerBatch
	}

	var batches [][]string
	var current []string
	currentLen := 0
	for _, f := range files {
		argLen := len(f) + 1
		if len(current) > 0 && (currentLen+argLen > budget || len(current) >= perBatch) {
			batches = append(batches, current)
			current = nil
			currentLen = 0
		}
		current = append(current, f)
		currentLen += argLen
	}
	return append(batches, current)
}

// fixedCommandLength estimates the argument bytes a hook contributes to
// every batch invocation: entry, fixed args, separators.
func fixedCommandLength(h *hook.Hook) int {
	n := len(h.Entry) + 1
	for _, a := range h.Args {
		n += len(a) + 1
	}
	return n
}

// batchesFor computes the run batches for one hook. Hooks that do not
// take filenames, or that demand a single serial process, always run as
// one batch.
func batchesFor(h *hook.Hook, files []string, concurrency int) [][]string {
	if !h.PassFilenames || h.RequireSerial {
		return [][]string{files}
	}
	return partitionFiles(files, fixedCommandLength(h), maxCommandLength(), concurrency)
}

func (g Group) String() string {
	return fmt.Sprintf("%s(%d hooks)", g.Key.ID(), len(g.Hooks))
}
