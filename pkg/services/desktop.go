package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// DesktopExiter closes the kiosk shell so the user lands back on the host desktop.
type DesktopExiter struct {
	command string
	pattern string
	log     *zap.Logger
}

func NewDesktopExiter(pattern string, log *zap.Logger) *DesktopExiter {
	return &DesktopExiter{command: "pkill", pattern: pattern, log: log.Named("desktop")}
}

// Exit runs `pkill -f <pattern>`. A non-zero exit (for instance nothing
// matched) is not an error; failing to start the command is.
func (d *DesktopExiter) Exit(ctx context.Context) error {
	err := exec.CommandContext(ctx, d.command, "-f", d.pattern).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		d.log.Info("pkill finished", zap.String("pattern", d.pattern), zap.Int("exit_code", exitErr.ExitCode()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", d.command, err)
	}
	d.log.Info("desktop shell terminated", zap.String("pattern", d.pattern))
	return nil
}
