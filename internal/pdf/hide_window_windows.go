//go:build windows

package pdf

import (
	"os/exec"
	"syscall"
)

// hideWindow stops a console window flashing up for each child process
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
