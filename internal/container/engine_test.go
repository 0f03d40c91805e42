// SPDX-License-Identifier: MPL-2.0

package container

import (
	"reflect"
	"testing"
)

func TestRunArgs(t *testing.T) {
	tests := []struct {
		name string
		opts RunOptions
		want []string
	}{
		{
			name: "minimal",
			opts: RunOptions{Image: "alpine:latest", Command: []string{"echo", "hi"}},
			want: []string{"run", "--rm", "alpine:latest", "echo", "hi"},
		},
		{
			name: "full",
			opts: RunOptions{
				Image:      "alpine:latest",
				Entrypoint: []string{"/bin/sh", "-c"},
				Command:    []string{"exit 3"},
				WorkDir:    "/src",
				User:       "1000:1000",
				Volumes:    []string{"/tmp/work:/src:z"},
				Env:        map[string]string{"B": "2", "A": "1"},
			},
			want: []string{
				"run", "--rm",
				"--user", "1000:1000",
				"--workdir", "/src",
				"--volume", "/tmp/work:/src:z",
				"--env", "A=1",
				"--env", "B=2",
				"--entrypoint", "/bin/sh",
				"alpine:latest",
				"-c", "exit 3",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runArgs(tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("runArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunArgsEnvOrderDeterministic(t *testing.T) {
	opts := RunOptions{
		Image: "alpine",
		Env:   map[string]string{"Z": "", "A": "", "M": ""},
	}
	first := runArgs(opts)
	for i := 0; i < 10; i++ {
		if got := runArgs(opts); !reflect.DeepEqual(got, first) {
			t.Fatalf("runArgs not deterministic: %v vs %v", got, first)
		}
	}
}

func TestNotAvailableError(t *testing.T) {
	err := &NotAvailableError{Tried: []string{"docker", "podman"}}
	want := "no container engine available (tried docker, podman)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
