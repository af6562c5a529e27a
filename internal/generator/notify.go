package generator

import "context"

// Notifier surfaces user-facing messages. Busy shows a progress indicator until done is called
// with the final status text.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Busy(msg string) (done func(final string))
}

// SecretPrompter asks the user for the API key.
type SecretPrompter interface {
	// Confirm offers the named action and reports whether the user accepted it.
	Confirm(ctx context.Context, message, action string) (bool, error)
	// Secret reads a secret without echoing it.
	Secret(ctx context.Context, prompt string) (string, error)
}

// Opener shows a generated file to the user.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Files is the filesystem access the generator needs.
type Files interface {
	ReadFile(path string) (string, error)
	Exists(path string) (bool, error)
	CreateFile(path, content string) error
}

type nopNotifier struct{}

func (nopNotifier) Info(string)              {}
func (nopNotifier) Warn(string)              {}
func (nopNotifier) Error(string)             {}
func (nopNotifier) Busy(string) func(string) { return func(string) {} }
