// Package console implements an interactive readline-driven operator shell
// for a running Engine. Grounded on a readline.Instance-backed REPL found
// elsewhere in the retrieved corpus (a signal handler wired to a shutdown
// path), repurposed from chat intents to scheduler operator commands:
// status, start, stop, import, tag, quit.
package console

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kaliklipper/ism-go/internal/engine"
	"github.com/kaliklipper/ism-go/internal/pack"
)

// Console is the interactive shell wrapping an Engine.
type Console struct {
	eng *engine.Engine
	rl  *readline.Instance

	packs map[string]pack.Provider
}

// New builds a Console over eng. historyFile may be empty to disable
// persistent history.
func New(eng *engine.Engine, historyFile string) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mism>\033[0m ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}
	return &Console{eng: eng, rl: rl, packs: map[string]pack.Provider{}}, nil
}

// RegisterPack makes p importable from the console under the "import"
// command, keyed by p.ID().
func (c *Console) RegisterPack(p pack.Provider) {
	c.packs[p.ID()] = p
}

// Run starts the REPL; it returns when the operator quits, EOF is reached,
// or a fatal read error occurs.
func (c *Console) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		c.eng.Stop()
	}()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := c.dispatch(line); err != nil {
			fmt.Printf("\033[31merror: %v\033[0m\n", err)
		}
	}
}

func (c *Console) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "status":
		phase, err := c.eng.GetExecutionPhase()
		if err != nil {
			return err
		}
		fmt.Printf("tag=%s db=%s phase=%s running=%v\n", c.eng.GetTag(), c.eng.GetDatabaseName(), phase, c.eng.Running())

	case "start":
		return c.eng.Start(false)

	case "stop":
		c.eng.Stop()

	case "import":
		if len(args) != 1 {
			return fmt.Errorf("usage: import <pack>")
		}
		p, ok := c.packs[args[0]]
		if !ok {
			return fmt.Errorf("unknown pack %q", args[0])
		}
		return c.eng.ImportActionPack(p)

	case "tag":
		if len(args) != 1 {
			return fmt.Errorf("usage: tag <name>")
		}
		c.eng.SetTag(args[0])

	case "quit", "exit":
		c.eng.Stop()
		os.Exit(0)

	default:
		return fmt.Errorf("unrecognised command %q (try: status, start, stop, import <pack>, tag <name>, quit)", cmd)
	}
	return nil
}
