package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/pkg/domain"
)

// ContinueMessage is sent on the user's behalf after a searching reply.
const ContinueMessage = "continue"

// maxAutoContinue bounds the automatic follow-ups sent for one user message.
const maxAutoContinue = 3

// Processor runs one conversation turn.
type Processor interface {
	ProcessInput(ctx context.Context, sessionID, text string) (domain.Reply, error)
}

// ContentRenderer transforms markdown before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Chat is an interactive line-based conversation over a reader and a writer.
type Chat struct {
	processor Processor
	sessionID string
	in        io.Reader
	out       io.Writer
	render    ContentRenderer
	greeting  string
	prompt    string
	logger    *slog.Logger
}

// ChatOption configures a Chat.
type ChatOption func(*Chat)

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) ChatOption {
	return func(c *Chat) {
		c.in = r
		c.out = w
	}
}

// WithRenderer renders every reply before printing it.
func WithRenderer(r ContentRenderer) ChatOption {
	return func(c *Chat) {
		c.render = r
	}
}

// WithGreeting prints text before the first prompt.
func WithGreeting(text string) ChatOption {
	return func(c *Chat) {
		c.greeting = text
	}
}

// WithPrompt sets the input prompt. The default is "> ".
func WithPrompt(prompt string) ChatOption {
	return func(c *Chat) {
		c.prompt = prompt
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ChatOption {
	return func(c *Chat) {
		c.logger = l
	}
}

// NewChat creates a chat for one session.
func NewChat(p Processor, sessionID string, opts ...ChatOption) *Chat {
	c := &Chat{
		processor: p,
		sessionID: sessionID,
		in:        os.Stdin,
		out:       os.Stdout,
		prompt:    "> ",
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type line struct {
	text string
	err  error
}

// Run reads messages until EOF, "quit" or "exit", or until ctx is done.
func (c *Chat) Run(ctx context.Context) error {
	if c.greeting != "" {
		c.show(c.greeting)
	}

	// Reads happen on their own goroutine so cancellation is not stuck
	// behind a blocking read.
	lines := make(chan line)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- line{text: sc.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	for {
		fmt.Fprint(c.out, c.prompt)

		var l line
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return ctx.Err()
		case l, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(c.out)
			return nil
		}
		if l.err != nil {
			return fmt.Errorf("failed to read input: %w", l.err)
		}

		text := strings.TrimSpace(l.text)
		switch strings.ToLower(text) {
		case "quit", "exit":
			fmt.Fprintln(c.out, "Safe travels!")
			return nil
		}

		if err := c.turn(ctx, text); err != nil {
			return err
		}
	}
}

// turn sends one message and follows searching replies with "continue"
// until the plan or the validation menu is shown.
func (c *Chat) turn(ctx context.Context, text string) error {
	reply, err := c.processor.ProcessInput(ctx, c.sessionID, text)
	for i := 0; ; i++ {
		if err != nil {
			if errors.Is(err, domain.ErrInputTooLarge) || errors.Is(err, domain.ErrInvalidUTF8) {
				fmt.Fprintf(c.out, "Sorry, I couldn't read that: %v\n", err)
				return nil
			}
			return err
		}
		c.show(reply.Text)
		if !reply.Searching || reply.Complete || i >= maxAutoContinue {
			return nil
		}
		c.logger.Debug("Auto-continuing after search", "session_id", c.sessionID, "node", reply.Node)
		reply, err = c.processor.ProcessInput(ctx, c.sessionID, ContinueMessage)
	}
}

func (c *Chat) show(text string) {
	if text == "" {
		return
	}
	if c.render != nil {
		rendered, err := c.render(text)
		if err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
		c.logger.Warn("Failed to render reply", "err", err)
	}
	fmt.Fprintln(c.out, text)
}
