// Package rover drives the rover controller board.
package rover

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/rover/protocol"
	"github.com/robotalks/rover.go/pkg/rover/telemetry"
	"github.com/robotalks/rover.go/pkg/rover/transport"
)

// Settle delays after commands. The firmware has no flow control,
// the next command is held back until the delay passes.
const (
	RebootSettleDelay   = 3000 * time.Millisecond
	ModeSettleDelay     = 100 * time.Millisecond
	ColorSettleDelay    = 100 * time.Millisecond
	WifiJoinSettleDelay = 5000 * time.Millisecond

	// WifiJoinReplyTimeout bounds the wait for the module's reply to a join.
	WifiJoinReplyTimeout = 2000 * time.Millisecond
)

// Driver is the facade translating intents into commands and exposing
// the cached telemetry.
type Driver struct {
	Port       transport.Port
	Link       transport.Config
	Variant    protocol.Variant
	Store      *telemetry.Store
	Dispatcher *telemetry.Dispatcher
	// Sleep waits for settle delays, time.Sleep if nil.
	Sleep func(time.Duration)

	initOnce sync.Once
	initErr  error
	cmdLock  sync.Mutex
}

// NewDriver creates a Driver over a Conn opened with link.
func NewDriver(link transport.Config, variant protocol.Variant) *Driver {
	store := telemetry.NewStore()
	dispatcher := telemetry.NewDispatcher(store)
	return &Driver{
		Port:       transport.NewConn(dispatcher),
		Link:       link,
		Variant:    variant,
		Store:      store,
		Dispatcher: dispatcher,
	}
}

// EnsureInitialized configures the port on first call. Later calls
// return the result of the first one.
func (d *Driver) EnsureInitialized() error {
	d.initOnce.Do(func() {
		if d.initErr = d.Port.Configure(d.Link); d.initErr != nil {
			glog.Errorf("configure %s failed: %v", d.Link.Device, d.initErr)
		}
	})
	return d.initErr
}

func (d *Driver) sleep(dur time.Duration) {
	if dur <= 0 {
		return
	}
	if fn := d.Sleep; fn != nil {
		fn(dur)
		return
	}
	time.Sleep(dur)
}

func (d *Driver) send(frame string, settle time.Duration) error {
	if err := d.EnsureInitialized(); err != nil {
		return err
	}
	d.cmdLock.Lock()
	defer d.cmdLock.Unlock()
	if err := d.Port.WriteLine(frame); err != nil {
		return err
	}
	d.sleep(settle)
	return nil
}

func (d *Driver) sendRaw(frame string, settle time.Duration) error {
	if err := d.EnsureInitialized(); err != nil {
		return err
	}
	d.cmdLock.Lock()
	defer d.cmdLock.Unlock()
	if err := d.Port.WriteRaw([]byte(frame)); err != nil {
		return err
	}
	d.sleep(settle)
	return nil
}

// Drive runs the motors. Speeds should be within 0 to 360.
func (d *Driver) Drive(leftSpeed uint, leftDir protocol.Direction, rightSpeed uint, rightDir protocol.Direction) error {
	return d.send(protocol.EncodeMotor(leftSpeed, leftDir, rightSpeed, rightDir), 0)
}

// Stop stops both motors.
func (d *Driver) Stop() error {
	return d.send(protocol.EncodeStop(), 0)
}

// PauseAI pauses the AI model.
func (d *Driver) PauseAI() error {
	return d.send(protocol.PauseAI, 0)
}

// ResumeAI resumes the AI model.
func (d *Driver) ResumeAI() error {
	return d.send(protocol.ResumeAI, 0)
}

// RebootAIModule reboots the AI module and waits for it to come back.
func (d *Driver) RebootAIModule() error {
	return d.send(protocol.RebootAIModule, RebootSettleDelay)
}

// SwitchMode switches the autonomous behavior.
func (d *Driver) SwitchMode(mode protocol.CarMode) error {
	frame, err := protocol.EncodeModeSwitch(mode)
	if err != nil {
		return err
	}
	return d.send(frame, ModeSettleDelay)
}

// ChangeColor sets the color filter for AI tracking.
func (d *Driver) ChangeColor(color protocol.ColorFilter) error {
	frame, err := protocol.EncodeColorChange(color)
	if err != nil {
		return err
	}
	return d.send(frame, ColorSettleDelay)
}

// SetLED turns the LED lights on or off.
func (d *Driver) SetLED(on bool) error {
	if on {
		return d.send(protocol.LEDOn, 0)
	}
	return d.send(protocol.LEDOff, 0)
}

// SetBuzzer turns the buzzer on or off.
func (d *Driver) SetBuzzer(on bool) error {
	if on {
		return d.send(protocol.BuzzerOn, 0)
	}
	return d.send(protocol.BuzzerOff, 0)
}

// SetObstacleAvoidance toggles obstacle avoidance.
func (d *Driver) SetObstacleAvoidance(on bool) error {
	return d.send(d.Variant.EncodeObstacleAvoidance(on), 0)
}

// SetRGB sets both RGB lights.
func (d *Driver) SetRGB(left, right protocol.RGB) error {
	return d.send(protocol.EncodeRGB(left, right), 0)
}

// SetRGBColor sets both RGB lights from packed 0xRRGGBB values.
func (d *Driver) SetRGBColor(left, right uint32) error {
	return d.SetRGB(protocol.RGBFromUint32(left), protocol.RGBFromUint32(right))
}

// QueryBattery asks the board to report battery.
func (d *Driver) QueryBattery() error {
	return d.send(protocol.QueryBattery, 0)
}

// QueryVoltage asks the board to report voltage.
func (d *Driver) QueryVoltage() error {
	return d.send(protocol.QueryVoltage, 0)
}

// QuerySonar asks the board to report sonar distance.
func (d *Driver) QuerySonar() error {
	return d.send(protocol.QuerySonar, 0)
}

// QueryLineSensors asks the board to report line sensors.
func (d *Driver) QueryLineSensors() error {
	return d.send(protocol.QueryLineSensors, 0)
}

// QueryAll sends all queries, failures don't stop the remaining ones.
func (d *Driver) QueryAll() error {
	var errs fx.AggregatedError
	errs.Add(d.QueryBattery(), d.QueryVoltage(), d.QuerySonar(), d.QueryLineSensors())
	return errs.Aggregate()
}

// SetWifiWaitMode enters or exits the Wi-Fi pairing wait mode.
func (d *Driver) SetWifiWaitMode(enter bool) error {
	if enter {
		return d.sendRaw(protocol.WifiWaitEnter, 0)
	}
	return d.sendRaw(protocol.WifiWaitExit, 0)
}

// ConnectWifi joins a Wi-Fi network.
func (d *Driver) ConnectWifi(ssid, password string) error {
	if err := d.EnsureInitialized(); err != nil {
		return err
	}
	d.cmdLock.Lock()
	defer d.cmdLock.Unlock()
	if err := d.Port.WriteRaw([]byte(protocol.EncodeWifiConnect(ssid, password))); err != nil {
		return err
	}
	reply, err := d.Port.ReadString(WifiJoinReplyTimeout)
	if err != nil {
		glog.Warningf("wifi join %q: no reply: %v", ssid, err)
	} else {
		glog.V(2).Infof("wifi join reply %q", reply)
	}
	d.sleep(WifiJoinSettleDelay)
	return nil
}

// Battery returns the last reported battery level.
func (d *Driver) Battery() int { return d.Store.Get(telemetry.Battery) }

// BatteryText returns the raw text of the last battery report.
func (d *Driver) BatteryText() string { return d.Store.BatteryText() }

// Voltage returns the last reported voltage.
func (d *Driver) Voltage() int { return d.Store.Get(telemetry.Voltage) }

// SonarDistance returns the last reported sonar distance.
func (d *Driver) SonarDistance() int { return d.Store.Get(telemetry.SonarDistance) }

// LineSensor1 returns the last reading of line sensor 1.
func (d *Driver) LineSensor1() int { return d.Store.Get(telemetry.Line1) }

// LineSensor2 returns the last reading of line sensor 2.
func (d *Driver) LineSensor2() int { return d.Store.Get(telemetry.Line2) }

// LineSensor3 returns the last reading of line sensor 3.
func (d *Driver) LineSensor3() int { return d.Store.Get(telemetry.Line3) }

// LineSensor4 returns the last reading of line sensor 4.
func (d *Driver) LineSensor4() int { return d.Store.Get(telemetry.Line4) }

// Telemetry returns a snapshot of all cached values.
func (d *Driver) Telemetry() telemetry.Snapshot { return d.Store.Snapshot() }

// Run implements Runnable. It runs the receive path of the port.
func (d *Driver) Run(ctx context.Context) error {
	if runnable, ok := d.Port.(fx.Runnable); ok {
		return runnable.Run(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Close closes the port.
func (d *Driver) Close() error {
	if closer, ok := d.Port.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
