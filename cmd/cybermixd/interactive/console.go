// Package interactive provides the interactive command-line interface
// for the cybermixd daemon.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/Dentalcow/cybermix/pkg/audio"
	"github.com/Dentalcow/cybermix/pkg/connection"
	"github.com/Dentalcow/cybermix/pkg/host"
)

// Console handles interactive mode for cybermixd.
type Console struct {
	coord *host.Coordinator
	mgr   *connection.Manager
	rl    *readline.Instance
}

// New creates a new interactive console.
func New(coord *host.Coordinator, mgr *connection.Manager) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cybermix> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{coord: coord, mgr: mgr, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "sessions", "ls":
			c.cmdSessions()

		case "bindings", "b":
			c.cmdBindings()

		case "assign", "a":
			c.cmdAssign(args)

		case "unassign", "u":
			c.cmdUnassign(args)

		case "page", "p":
			c.cmdPage(args)

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
CyberMix Commands:
  sessions                      - List known audio sessions
  bindings                      - List channel bindings
  assign <page> <ch> <identity> - Bind a session to a channel
  unassign <page> <ch>          - Clear a channel binding
  page <n>                      - Switch the active page
  status                        - Show daemon status
  help                          - Show this help
  quit                          - Exit`)
}

// cmdSessions lists all known sessions, live and dead.
func (c *Console) cmdSessions() {
	sessions := c.coord.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No sessions")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "\nAudio Sessions (%d):\n", len(sessions))
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	for _, s := range sessions {
		state := "live"
		if !s.Live {
			state = "gone"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %-24s %3.0f%%  %s\n", s.ID, s.Volume*100, state)
	}
	fmt.Fprintln(c.rl.Stdout())
}

// cmdBindings lists all assigned slots.
func (c *Console) cmdBindings() {
	records := c.coord.Bindings()
	if len(records) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No bindings")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "\nBindings (%d):\n", len(records))
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	for _, r := range records {
		fmt.Fprintf(c.rl.Stdout(), "  page %d  channel %d  ->  %s\n", r.Page, r.Channel, r.Target)
	}
	fmt.Fprintln(c.rl.Stdout())
}

// cmdAssign handles the assign command.
func (c *Console) cmdAssign(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: assign <page> <channel> <identity>")
		fmt.Fprintf(c.rl.Stdout(), "  Use %q for the system master volume\n", audio.MasterID)
		return
	}

	page, channel, ok := c.parseSlot(args[0], args[1])
	if !ok {
		return
	}

	if err := c.coord.Assign(page, channel, args[2]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Assign failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

// cmdUnassign handles the unassign command.
func (c *Console) cmdUnassign(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: unassign <page> <channel>")
		return
	}

	page, channel, ok := c.parseSlot(args[0], args[1])
	if !ok {
		return
	}

	if err := c.coord.Unassign(page, channel); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Unassign failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

// cmdPage handles the page command.
func (c *Console) cmdPage(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(c.rl.Stdout(), "Active page: %d\n", c.coord.Page())
		return
	}

	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid page: %v\n", err)
		return
	}
	if err := c.coord.SetPage(uint8(n)); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Page switch failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

// cmdStatus shows the daemon status.
func (c *Console) cmdStatus() {
	values := c.coord.FaderValues()

	fmt.Fprintln(c.rl.Stdout(), "\nDaemon Status")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  Connection:  %s\n", c.mgr.State())
	fmt.Fprintf(c.rl.Stdout(), "  Active page: %d\n", c.coord.Page())
	fmt.Fprintf(c.rl.Stdout(), "  Bindings:    %d\n", len(c.coord.Bindings()))
	for ch, v := range values {
		fmt.Fprintf(c.rl.Stdout(), "  Fader %d:     %3.0f%%\n", ch, v*100)
	}
	fmt.Fprintln(c.rl.Stdout())
}

// parseSlot parses page and channel arguments.
func (c *Console) parseSlot(pageArg, channelArg string) (page, channel uint8, ok bool) {
	p, err := strconv.ParseUint(pageArg, 10, 8)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid page: %v\n", err)
		return 0, 0, false
	}
	ch, err := strconv.ParseUint(channelArg, 10, 8)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid channel: %v\n", err)
		return 0, 0, false
	}
	return uint8(p), uint8(ch), true
}
