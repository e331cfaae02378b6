package main

import (
	"os"
	"testing"
)

func TestMainExitsWithCommandStatus(t *testing.T) {
	origArgs, origExit := os.Args, exitFunc
	t.Cleanup(func() {
		os.Args = origArgs
		exitFunc = origExit
	})

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"origamictl", "--version"}, 0},
		{"unknown command", []string{"origamictl", "fold"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			os.Args = tc.args
			got := -1
			exitFunc = func(code int) { got = code }
			main()
			if got != tc.want {
				t.Fatalf("exit code = %d, want %d", got, tc.want)
			}
		})
	}
}
