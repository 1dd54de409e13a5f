//go:build !gui

package main

import (
	"context"
	"fmt"
	"os"

	"klonshie/control"
)

// guiStub stands in for the desktop window in builds without it; it is
// never constructed since guiMode stays false.
type guiStub struct{}

func (*guiStub) Quit()                                  {}
func (*guiStub) Bind(context.Context, *control.Surface) {}
func (*guiStub) Done() <-chan struct{}                  { return nil }

var guiApp *guiStub

func initGUI() {
	fmt.Fprintln(os.Stderr, "klonshie: built without GUI support (rebuild with -tags gui)")
	os.Exit(1)
}
