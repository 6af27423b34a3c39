package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/rover"
	"github.com/robotalks/rover.go/pkg/rover/protocol"
	"github.com/robotalks/rover.go/pkg/rover/telemetry"
)

// ErrUnknownOp indicates an unsupported command op.
var ErrUnknownOp = errors.New("unknown op")

// CommandQueueSize is the number of commands waiting for execution.
const CommandQueueSize = 16

// Bridge publishes telemetry of a rover and executes commands received
// from MQTT. Topics, relative to the queue prefix:
//   ID/meta               retained metadata, cleared on exit
//   ID/telemetry          JSON snapshot after changes
//   ID/telemetry/SLOT     decimal value of a slot on each update
//   ID/cmd                JSON commands {"op": ..., "id": ...}
//   ID/reply              JSON results {"op": ..., "id": ..., "ok": ...}
type Bridge struct {
	Queue   *Queue
	RoverID string
	Driver  *rover.Driver
	Now     func() time.Time

	changedCh chan struct{}
	cmdCh     chan Document
}

// NewBridge creates a Bridge and registers it as the telemetry notifier
// of the driver.
func NewBridge(brokerURL, roverID string, driver *rover.Driver) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+roverID+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("rover:" + roverID)
	}
	b := newBridge(roverID, driver)
	b.Queue = NewQueue(opts, topicPrefix)
	b.Queue.OnConnect = func(*Queue) { b.publishMeta() }
	driver.Dispatcher.Notifier = b
	return b, nil
}

func newBridge(roverID string, driver *rover.Driver) *Bridge {
	return &Bridge{
		RoverID:   roverID,
		Driver:    driver,
		changedCh: make(chan struct{}, 1),
		cmdCh:     make(chan Document, CommandQueueSize),
	}
}

func (b *Bridge) topic(sub string) string {
	return b.RoverID + "/" + sub
}

func (b *Bridge) now() time.Time {
	if fn := b.Now; fn != nil {
		return fn()
	}
	return time.Now()
}

// Name implements Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	token := b.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT connect error: %v", err)
	}
	sub := b.Queue.Sub(b.topic("cmd"), b.enqueueCommand)
	defer func() {
		sub.Close()
		b.Queue.PubWith(b.topic("meta"), nil, 1, true).Wait()
		b.Queue.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.changedCh:
			b.publishSnapshot()
		case doc := <-b.cmdCh:
			b.execute(doc)
		}
	}
}

// SlotUpdated implements telemetry.UpdateNotifier.
func (b *Bridge) SlotUpdated(ctx context.Context, slot telemetry.Slot, val int) {
	b.Queue.Pub(b.topic("telemetry/"+slot.String()), []byte(strconv.Itoa(val)))
	select {
	case b.changedCh <- struct{}{}:
	default:
	}
}

func (b *Bridge) publishMeta() {
	b.Queue.PubWith(b.topic("meta"), encodeMeta(b.Driver.Variant.Name, b.Driver.Link.Device), 1, true)
}

func (b *Bridge) publishSnapshot() {
	payload, err := EncodeSnapshot(b.RoverID, b.Driver.Telemetry(), b.now())
	if err != nil {
		glog.Errorf("encode telemetry error: %v", err)
		return
	}
	b.Queue.Pub(b.topic("telemetry"), payload)
}

func (b *Bridge) enqueueCommand(_ string, payload []byte) {
	doc, err := DecodeDocument(payload)
	if err != nil {
		glog.Warningf("bad command %q: %v", payload, err)
		b.Queue.Pub(b.topic("reply"), encodeReply("", "", fmt.Errorf("bad command: %v", err)))
		return
	}
	select {
	case b.cmdCh <- doc:
	default:
		id, _ := doc.Text("id")
		op, _ := doc.Text("op")
		b.Queue.Pub(b.topic("reply"), encodeReply(id, op, errors.New("busy")))
	}
}

func (b *Bridge) execute(doc Document) {
	id, _ := doc.Text("id")
	op, err := b.Execute(doc)
	if err != nil {
		glog.Warningf("command %q (id=%q) error: %v", op, id, err)
	}
	b.Queue.Pub(b.topic("reply"), encodeReply(id, op, err))
}

// Execute runs a command document against the driver and returns its op.
func (b *Bridge) Execute(doc Document) (string, error) {
	op, err := doc.Text("op")
	if err != nil {
		return op, err
	}
	d := b.Driver
	switch op {
	case "drive":
		return op, b.drive(doc)
	case "stop":
		return op, d.Stop()
	case "pause_ai":
		return op, d.PauseAI()
	case "resume_ai":
		return op, d.ResumeAI()
	case "reboot_ai":
		return op, d.RebootAIModule()
	case "mode":
		name, err := doc.Text("mode")
		if err != nil {
			return op, err
		}
		mode, err := protocol.ParseCarMode(name)
		if err != nil {
			return op, err
		}
		return op, d.SwitchMode(mode)
	case "color":
		name, err := doc.Text("color")
		if err != nil {
			return op, err
		}
		color, err := protocol.ParseColorFilter(name)
		if err != nil {
			return op, err
		}
		return op, d.ChangeColor(color)
	case "led", "buzzer", "obstacle_avoidance", "wifi_wait":
		on, err := doc.Bool("on")
		if err != nil {
			return op, err
		}
		switch op {
		case "led":
			return op, d.SetLED(on)
		case "buzzer":
			return op, d.SetBuzzer(on)
		case "obstacle_avoidance":
			return op, d.SetObstacleAvoidance(on)
		}
		return op, d.SetWifiWaitMode(on)
	case "rgb":
		left, err := doc.Uint("left", 0xffffff)
		if err != nil {
			return op, err
		}
		right, err := doc.Uint("right", 0xffffff)
		if err != nil {
			return op, err
		}
		return op, d.SetRGBColor(uint32(left), uint32(right))
	case "query":
		return op, b.query(doc)
	case "wifi_join":
		ssid, err := doc.Text("ssid")
		if err != nil {
			return op, err
		}
		if ssid == "" {
			return op, fmt.Errorf("ssid required")
		}
		password, err := doc.Text("password")
		if err != nil {
			return op, err
		}
		return op, d.ConnectWifi(ssid, password)
	}
	return op, fmt.Errorf("%w: %q", ErrUnknownOp, op)
}

func (b *Bridge) drive(doc Document) error {
	var speeds [2]uint64
	var dirs [2]protocol.Direction
	for n, side := range []string{"left", "right"} {
		speed, err := doc.Uint(side+"_speed", protocol.MaxFieldSize)
		if err != nil {
			return err
		}
		speeds[n] = speed
		dir, err := doc.Text(side + "_dir")
		if err != nil {
			return err
		}
		if dir != "" {
			if dirs[n], err = protocol.ParseDirection(dir); err != nil {
				return err
			}
		}
	}
	return b.Driver.Drive(uint(speeds[0]), dirs[0], uint(speeds[1]), dirs[1])
}

func (b *Bridge) query(doc Document) error {
	name, err := doc.Text("slot")
	if err != nil {
		return err
	}
	if name == "" || name == "all" {
		return b.Driver.QueryAll()
	}
	slot, ok := telemetry.ParseSlot(name)
	if !ok {
		return fmt.Errorf("unknown slot %q", name)
	}
	switch slot {
	case telemetry.Battery:
		return b.Driver.QueryBattery()
	case telemetry.Voltage:
		return b.Driver.QueryVoltage()
	case telemetry.SonarDistance:
		return b.Driver.QuerySonar()
	}
	return b.Driver.QueryLineSensors()
}
