package ui

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Rendering assertions compare plain text; keep escape sequences out even
	// when the tests run inside a color terminal.
	os.Setenv("NO_COLOR", "1")
	os.Setenv("TERM", "dumb")

	os.Exit(m.Run())
}
