package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// isTerminal reports whether v is an interactive terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// consoleNotifier prints user-facing messages to w, coloured by severity.
type consoleNotifier struct {
	w       io.Writer
	spinner bool
	mu      sync.Mutex
}

func newConsoleNotifier(w io.Writer) *consoleNotifier {
	return &consoleNotifier{w: w, spinner: isTerminal(w)}
}

func (n *consoleNotifier) Info(msg string) {
	n.print(color.New(color.FgCyan), msg)
}

func (n *consoleNotifier) Warn(msg string) {
	n.print(color.New(color.FgYellow), msg)
}

func (n *consoleNotifier) Error(msg string) {
	n.print(color.New(color.FgRed), msg)
}

func (n *consoleNotifier) print(c *color.Color, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c.Fprintln(n.w, msg) //nolint:errcheck // terminal output
}

// Busy shows a spinner on a terminal, or a single line otherwise, until done is called.
func (n *consoleNotifier) Busy(msg string) func(final string) {
	if !n.spinner {
		n.print(color.New(color.FgCyan), msg)
		return func(final string) {
			n.print(color.New(color.FgCyan), final)
		}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(msg)),
		progressbar.OptionSetWriter(n.w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func(final string) {
		once.Do(func() {
			close(stop)
			wg.Wait()
			_ = bar.Finish()
			n.print(color.New(color.FgCyan), final)
		})
	}
}

// formPrompter asks for confirmation and secrets with huh forms.
type formPrompter struct{}

func (formPrompter) Confirm(ctx context.Context, message, action string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Affirmative(action).
			Negative("Not now").
			Value(&ok),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func (formPrompter) Secret(ctx context.Context, prompt string) (string, error) {
	var secret string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(prompt).
			EchoMode(huh.EchoModePassword).
			Value(&secret),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", nil
	}
	return secret, err
}

// linePrompter reads a secret as one line from a non-interactive input. It never confirms.
type linePrompter struct {
	r io.Reader
}

func (linePrompter) Confirm(context.Context, string, string) (bool, error) {
	return false, nil
}

func (p linePrompter) Secret(_ context.Context, _ string) (string, error) {
	line, err := bufio.NewReader(p.r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// editorOpener opens files in $VISUAL or $EDITOR.
type editorOpener struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func (o editorOpener) Open(ctx context.Context, path string) error {
	getenv := o.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	editor := strings.TrimSpace(getenv("VISUAL"))
	if editor == "" {
		editor = strings.TrimSpace(getenv("EDITOR"))
	}
	if editor == "" {
		return errors.New("neither VISUAL nor EDITOR is set")
	}

	fields := strings.Fields(editor)
	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin = o.stdin
	cmd.Stdout = o.stdout
	cmd.Stderr = o.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", fields[0], err)
	}
	return nil
}
