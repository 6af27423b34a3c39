package transport

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// OpenSerial opens a UART with 8 data bits, no parity and 1 stop bit.
// A "baud" query parameter in the device URL overrides Config.BaudRate.
func OpenSerial(conf Config) (io.ReadWriteCloser, error) {
	path, baud := conf.Device, conf.BaudRate
	if strings.Contains(path, "://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("invalid device URL: %v", err)
		}
		path = u.Path
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud %q: %v", val, err)
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf("serial device path required")
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", path, err)
	}
	if err = port.ResetInputBuffer(); err != nil {
		glog.Warningf("reset input buffer of %s: %v", path, err)
	}
	glog.Infof("serial %s opened at %d baud", path, baud)
	return port, nil
}

// ListSerialPorts lists serial ports available on the host.
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
