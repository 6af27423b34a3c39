package transport

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// Port is the link to the board used by the driver.
type Port interface {
	// Configure opens the link. It is called once.
	Configure(Config) error
	// WriteLine writes s followed by '\n'.
	WriteLine(s string) error
	// WriteRaw writes bytes as-is.
	WriteRaw(p []byte) error
	// ReadString waits up to timeout for the reply to the last WriteRaw.
	// It returns the bytes received since that write once a line
	// terminator arrives, or what has arrived when timeout expires.
	// Received bytes are still framed and dispatched as lines.
	ReadString(timeout time.Duration) (string, error)
}

// LineHandler is called for each received line.
type LineHandler interface {
	HandleLine(ctx context.Context, line string)
}

// HandleLineFunc is func type of LineHandler.
type HandleLineFunc func(ctx context.Context, line string)

// HandleLine implements LineHandler.
func (f HandleLineFunc) HandleLine(ctx context.Context, line string) {
	f(ctx, line)
}

// Config configures the link.
type Config struct {
	// Device is a serial device path, or an URL:
	//   serial:///dev/ttyUSB0?baud=9600
	//   ws://host:port/path
	Device string
	// BaudRate of the UART, must match the firmware.
	BaudRate int
	// RxBufferSize limits the length of a received line.
	RxBufferSize int
	// TxPin and RxPin name the board pins wired to the link.
	TxPin string
	RxPin string
}

// Opener opens the byte stream described by Config.
type Opener func(Config) (io.ReadWriteCloser, error)

// Open opens the stream selected by the scheme of Config.Device.
func Open(conf Config) (io.ReadWriteCloser, error) {
	if !strings.Contains(conf.Device, "://") {
		return OpenSerial(conf)
	}
	u, err := url.Parse(conf.Device)
	if err != nil {
		return nil, fmt.Errorf("invalid device URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		return OpenSerial(conf)
	case "ws", "wss":
		return OpenWebsocket(conf)
	default:
		return nil, fmt.Errorf("unknown device URL scheme: %q", u.Scheme)
	}
}
