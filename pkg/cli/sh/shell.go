package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
	"github.com/robotalks/rover.go/pkg/rover"
	"github.com/robotalks/rover.go/pkg/rover/transport"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *rover.Config
	Driver *rover.Driver

	cancel func()
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&PortsCmd,
		&TelemetryCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *rover.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Open creates the driver and starts its receive path.
// The link itself is opened by the first command.
func (s *Shell) Open() error {
	if s.Driver != nil {
		return nil
	}
	d, err := s.Config.NewDriver()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := d.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("receive error: %v", err)
		}
	}()
	s.Driver, s.cancel = d, cancel
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Config.Device))
	return nil
}

// Close stops the driver.
func (s *Shell) Close() {
	if s.Driver != nil {
		s.cancel()
		s.Driver.Close()
		s.Driver, s.cancel = nil, nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// MustBeOpen wraps a command func requiring the driver, opening it on demand.
func MustBeOpen(fn func(c *ishell.Context, d *rover.Driver)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if err := s.Open(); err != nil {
			c.Err(err)
			return
		}
		fn(c, s.Driver)
	}
}

// DoCommand runs a driver operation and prints the result.
func DoCommand(c *ishell.Context, fn func() error) error {
	err := fn()
	if ShellFrom(c).OutputJSON {
		res := map[string]interface{}{"ok": err == nil}
		if err != nil {
			res["error"] = err.Error()
		}
		out, _ := json.Marshal(res)
		c.Println(string(out))
		return err
	}
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println("OK")
	return nil
}

// ParseSwitch parses on/off style arguments.
func ParseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch %q, on or off expected", arg)
}

// SelectPort lists serial ports and asks for a choice.
// It returns empty string if no port is found.
func (s *Shell) SelectPort() (string, error) {
	ports, err := transport.ListSerialPorts()
	if err != nil || len(ports) == 0 {
		return "", err
	}
	if len(ports) == 1 {
		return ports[0], nil
	}
	if !s.Interactive {
		return "", fmt.Errorf("more than 1 serial ports found in non-interactive mode")
	}
	index := s.Shell.MultiChoice(ports, "Which one to open?")
	if index < 0 {
		return "", fmt.Errorf("nothing selected")
	}
	return ports[index], nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens the driver.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[DEVICE|?]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				device := c.Args[0]
				if device == "?" {
					selected, err := s.SelectPort()
					if err != nil {
						c.Err(err)
						return
					}
					if selected == "" {
						c.Println("No serial ports found")
						return
					}
					device = selected
				}
				s.Close()
				s.Config.Device = device
			}
			if err := s.Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the driver.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"ls"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := transport.ListSerialPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// TelemetryCmd prints cached telemetry.
	TelemetryCmd = ishell.Cmd{
		Name:    "telemetry",
		Aliases: []string{"t"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			snap := d.Telemetry()
			if ShellFrom(c).OutputJSON {
				out, err := mqtt.EncodeSnapshot(ShellFrom(c).Config.Device, snap, time.Now())
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Println(FormatTelemetry(snap))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(rover.NewConfig()).Run(flag.Args()...)
}
