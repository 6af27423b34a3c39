package telemetry

import (
	"context"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// Reply tags.
const (
	TagBattery     = "CT"
	TagVoltage     = "CV"
	TagSonar       = "CU"
	TagLineSensors = "CL"

	tagLen = 2
)

// UpdateNotifier is called after a slot is updated.
type UpdateNotifier interface {
	SlotUpdated(ctx context.Context, slot Slot, val int)
}

// SlotUpdatedFunc is func type of UpdateNotifier.
type SlotUpdatedFunc func(ctx context.Context, slot Slot, val int)

// SlotUpdated implements UpdateNotifier.
func (f SlotUpdatedFunc) SlotUpdated(ctx context.Context, slot Slot, val int) {
	f(ctx, slot, val)
}

// Dispatcher decodes reply lines into the Store.
//
// A payload which doesn't decode leaves the slot unchanged. For line
// sensor reports this applies to each digit separately.
type Dispatcher struct {
	Store    *Store
	Notifier UpdateNotifier
}

// NewDispatcher creates a Dispatcher writing to store.
func NewDispatcher(store *Store) *Dispatcher {
	return &Dispatcher{Store: store}
}

// HandleLine implements transport.LineHandler.
func (d *Dispatcher) HandleLine(ctx context.Context, line string) {
	updates := d.Dispatch(line)
	if n := d.Notifier; n != nil {
		for _, u := range updates {
			n.SlotUpdated(ctx, u.Slot, u.Value)
		}
	}
}

// Update is a slot value applied by Dispatch.
type Update struct {
	Slot  Slot
	Value int
}

// Dispatch decodes one line and returns the applied updates.
func (d *Dispatcher) Dispatch(line string) (updates []Update) {
	if len(line) <= tagLen {
		if line != "" {
			glog.V(3).Infof("drop short line %q", line)
		}
		return nil
	}
	tag, payload := line[:tagLen], line[tagLen:]
	var text string
	switch tag {
	case TagLineSensors:
		if len(payload) < 4 {
			glog.V(2).Infof("drop truncated line sensor report %q", line)
			return nil
		}
		for n := 0; n < 4; n++ {
			c := payload[n]
			if c < '0' || c > '9' {
				glog.V(2).Infof("line sensor %d: bad digit %q in %q", n+1, c, line)
				continue
			}
			updates = append(updates, Update{Slot: Line1 + Slot(n), Value: int(c - '0')})
		}
	case TagVoltage:
		updates = d.decodeInt(updates, Voltage, line, payload)
	case TagSonar:
		updates = d.decodeInt(updates, SonarDistance, line, payload)
	case TagBattery:
		text = strings.TrimSpace(payload)
		updates = d.decodeInt(updates, Battery, line, payload)
	default:
		glog.V(3).Infof("ignore line %q", line)
		return nil
	}
	d.Store.apply(updates, text)
	return
}

func (d *Dispatcher) decodeInt(updates []Update, slot Slot, line, payload string) []Update {
	val, err := strconv.ParseUint(strings.TrimSpace(payload), 10, 31)
	if err != nil {
		glog.V(2).Infof("%s: bad payload in %q: %v", slot, line, err)
		return updates
	}
	return append(updates, Update{Slot: slot, Value: int(val)})
}
