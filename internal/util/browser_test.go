package util

import "testing"

func TestBrowserCommands(t *testing.T) {
	t.Parallel()

	url := "http://localhost:20262"
	for _, goos := range []string{"windows", "darwin", "linux"} {
		cmds := browserCommands(goos, url)
		if len(cmds) == 0 {
			t.Fatalf("%s: no commands", goos)
		}
		for _, c := range cmds {
			if c[len(c)-1] != url {
				t.Fatalf("%s: url should be the last argument: %v", goos, c)
			}
		}
	}
	if got := browserCommands("darwin", url)[0][0]; got != "open" {
		t.Fatalf("darwin command=%s, want open", got)
	}
}
