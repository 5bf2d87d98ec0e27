package artifact

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Builder compiles benchmark components for an ad hoc build location.
type Builder interface {
	Build(ctx context.Context, label, dir string) error
}

// CommandBuilder shells out to the external build pipeline. The label and the
// build location are appended to Command.
type CommandBuilder struct {
	Command []string
	WorkDir string
	Logger  *slog.Logger
}

// NewCommandBuilder creates a builder running command from workDir.
func NewCommandBuilder(command []string, workDir string, logger *slog.Logger) *CommandBuilder {
	return &CommandBuilder{
		Command: command,
		WorkDir: workDir,
		Logger:  logger.With(slog.String("component", "builder")),
	}
}

// Build runs the build command and waits for it to finish.
func (b *CommandBuilder) Build(ctx context.Context, label, dir string) error {
	if len(b.Command) == 0 {
		return fmt.Errorf("no build command configured")
	}

	args := make([]string, 0, len(b.Command)+1)
	args = append(args, b.Command[1:]...)
	args = append(args, label, dir)

	cmd := exec.CommandContext(ctx, b.Command[0], args...)
	cmd.Dir = b.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.Logger.Info("building components",
		slog.String("label", label),
		slog.String("dir", dir),
	)

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build %s from %s failed: %w\nstdout: %s\nstderr: %s",
			label, dir, err, stdout.String(), stderr.String())
	}

	b.Logger.Info("build finished", slog.Duration("took", time.Since(start)))
	return nil
}
