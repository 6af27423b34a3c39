package car

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rover.go/pkg/cli/sh"
	"github.com/robotalks/rover.go/pkg/rover"
	"github.com/robotalks/rover.go/pkg/rover/protocol"
	"github.com/robotalks/rover.go/pkg/rover/telemetry"
)

var (
	// DriveCmd sets both motors.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"d"},
		Help:    "LEFT_SPEED[+|-] RIGHT_SPEED[+|-]",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("expect LEFT_SPEED RIGHT_SPEED"))
				return
			}
			ls, ld, err := ParseMotor(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			rs, rd, err := ParseMotor(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func() error { return d.Drive(ls, ld, rs, rd) })
		}),
	}

	// StopCmd stops both motors.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			sh.DoCommand(c, d.Stop)
		}),
	}

	// ModeCmd switches car mode.
	ModeCmd = ishell.Cmd{
		Name: "mode",
		Help: "manual|ai|ball|person|face",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("expect MODE"))
				return
			}
			mode, err := protocol.ParseCarMode(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func() error { return d.SwitchMode(mode) })
		}),
	}

	// ColorCmd changes the tracked color.
	ColorCmd = ishell.Cmd{
		Name: "color",
		Help: "red|green|blue|black",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("expect COLOR"))
				return
			}
			color, err := protocol.ParseColorFilter(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func() error { return d.ChangeColor(color) })
		}),
	}

	// RGBCmd sets both RGB lights.
	RGBCmd = ishell.Cmd{
		Name: "rgb",
		Help: "LEFT_RRGGBB [RIGHT_RRGGBB]",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			if len(c.Args) < 1 || len(c.Args) > 2 {
				c.Err(fmt.Errorf("expect LEFT_RRGGBB [RIGHT_RRGGBB]"))
				return
			}
			left, err := ParseColor(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			right := left
			if len(c.Args) > 1 {
				if right, err = ParseColor(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			sh.DoCommand(c, func() error { return d.SetRGBColor(left, right) })
		}),
	}

	// LEDCmd switches the LED.
	LEDCmd = switchCmd("led", nil, (*rover.Driver).SetLED)
	// BuzzerCmd switches the buzzer.
	BuzzerCmd = switchCmd("buzzer", []string{"beep"}, (*rover.Driver).SetBuzzer)
	// ObstacleCmd switches obstacle avoidance.
	ObstacleCmd = switchCmd("obstacle", []string{"oa"}, (*rover.Driver).SetObstacleAvoidance)
	// WifiWaitCmd enters or exits Wi-Fi wait mode.
	WifiWaitCmd = switchCmd("wifi.wait", nil, (*rover.Driver).SetWifiWaitMode)

	// PauseAICmd pauses the AI module.
	PauseAICmd = ishell.Cmd{
		Name: "ai.pause",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			sh.DoCommand(c, d.PauseAI)
		}),
	}

	// ResumeAICmd resumes the AI module.
	ResumeAICmd = ishell.Cmd{
		Name: "ai.resume",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			sh.DoCommand(c, d.ResumeAI)
		}),
	}

	// RebootAICmd reboots the AI module.
	RebootAICmd = ishell.Cmd{
		Name: "ai.reboot",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			sh.DoCommand(c, d.RebootAIModule)
		}),
	}

	// QueryCmd requests telemetry reports.
	QueryCmd = ishell.Cmd{
		Name:    "query",
		Aliases: []string{"q"},
		Help:    "[all|battery|voltage|sonar|line]",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			what := "all"
			if len(c.Args) > 0 {
				what = c.Args[0]
			}
			fn, err := QueryFunc(d, what)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, fn)
		}),
	}

	// WifiJoinCmd asks the module to join a network.
	WifiJoinCmd = ishell.Cmd{
		Name: "wifi.join",
		Help: "SSID PASSWORD",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("expect SSID PASSWORD"))
				return
			}
			sh.DoCommand(c, func() error { return d.ConnectWifi(c.Args[0], c.Args[1]) })
		}),
	}
)

func switchCmd(name string, aliases []string, fn func(*rover.Driver, bool) error) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    "on|off",
		Func: sh.MustBeOpen(func(c *ishell.Context, d *rover.Driver) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("expect on or off"))
				return
			}
			on, err := sh.ParseSwitch(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, func() error { return fn(d, on) })
		}),
	}
}

// ParseMotor parses SPEED with optional direction suffix, e.g. 120 or 80-.
func ParseMotor(arg string) (uint, protocol.Direction, error) {
	dir := protocol.Positive
	if n := len(arg); n > 0 && (arg[n-1] == '+' || arg[n-1] == '-') {
		var err error
		if dir, err = protocol.ParseDirection(arg[n-1:]); err != nil {
			return 0, dir, err
		}
		arg = arg[:n-1]
	}
	speed, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, dir, fmt.Errorf("invalid speed %q: %w", arg, err)
	}
	if speed > protocol.MaxFieldSize {
		return 0, dir, fmt.Errorf("speed %d out of range", speed)
	}
	return uint(speed), dir, nil
}

// ParseColor parses RRGGBB with optional # or 0x prefix.
func ParseColor(arg string) (uint32, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(arg), "#"), "0x")
	val, err := strconv.ParseUint(s, 16, 24)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", arg, err)
	}
	return uint32(val), nil
}

// QueryFunc maps a query target to the driver operation.
func QueryFunc(d *rover.Driver, what string) (func() error, error) {
	if what == "all" {
		return d.QueryAll, nil
	}
	if what == "line" {
		return d.QueryLineSensors, nil
	}
	slot, ok := telemetry.ParseSlot(what)
	if !ok {
		return nil, fmt.Errorf("unknown query target %q", what)
	}
	switch slot {
	case telemetry.Battery:
		return d.QueryBattery, nil
	case telemetry.Voltage:
		return d.QueryVoltage, nil
	case telemetry.SonarDistance:
		return d.QuerySonar, nil
	default:
		return d.QueryLineSensors, nil
	}
}

func init() {
	sh.AddCmds(
		&DriveCmd,
		&StopCmd,
		&ModeCmd,
		&ColorCmd,
		&RGBCmd,
		&LEDCmd,
		&BuzzerCmd,
		&ObstacleCmd,
		&PauseAICmd,
		&ResumeAICmd,
		&RebootAICmd,
		&QueryCmd,
		&WifiWaitCmd,
		&WifiJoinCmd,
	)
}
