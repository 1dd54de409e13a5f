//go:build !windows

package doctor

import (
	"os"
	"os/exec"

	"klonshie/shutdown"
)

func resetTerminal() {
	if _, err := os.Stat("/dev/tty"); err != nil {
		return
	}
	exec.Command("stty", "sane").Run()
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
