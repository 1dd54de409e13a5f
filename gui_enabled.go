//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"klonshie/gui"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Fyne's event loop must own the main OS thread.
	runtime.LockOSThread()

	guiApp = gui.NewApp(version, func() {
		run()
	})
	sink = guiApp
	if err := gui.Run(guiApp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
