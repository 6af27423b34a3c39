package rover

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/robotalks/rover.go/pkg/rover/protocol"
	"github.com/robotalks/rover.go/pkg/rover/transport"
)

// Board pins wired to the UART.
const (
	TxPin = "P16"
	RxPin = "P8"
)

// Config defines the configurations for the driver.
type Config struct {
	// Device is the serial device path or URL, see transport.Config.
	Device string
	// Variant names the protocol variant of the firmware.
	Variant string
	// BaudRate overrides the baud rate of the variant if not zero.
	BaudRate int
	// RxBufferSize limits the length of received lines.
	RxBufferSize int
	// PollInterval is the interval of telemetry queries, 0 disables polling.
	PollInterval time.Duration
}

var defaultConfig = Config{
	Device:       "/dev/ttyUSB0",
	Variant:      protocol.DefaultVariant.Name,
	RxBufferSize: transport.DefaultRxBufferSize,
}

func init() {
	if val := os.Getenv("ROVER_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("ROVER_VARIANT"); val != "" {
		defaultConfig.Variant = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial device path, serial:// or ws:// URL.")
	flag.StringVar(&defaultConfig.Variant, "variant", defaultConfig.Variant, "Protocol variant: v1 (115200 baud) or v2 (9600 baud).")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Override baud rate of the variant.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Telemetry polling interval, 0 to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LinkConfig builds the transport config for a variant.
func (c *Config) LinkConfig(variant protocol.Variant) transport.Config {
	link := transport.Config{
		Device:       c.Device,
		BaudRate:     variant.BaudRate,
		RxBufferSize: c.RxBufferSize,
		TxPin:        TxPin,
		RxPin:        RxPin,
	}
	if c.BaudRate > 0 {
		link.BaudRate = c.BaudRate
	}
	return link
}

// NewDriver creates a driver using the config.
// The link is not opened until the first command.
func (c *Config) NewDriver() (*Driver, error) {
	variant, err := protocol.VariantByName(c.Variant)
	if err != nil {
		return nil, err
	}
	return NewDriver(c.LinkConfig(variant), variant), nil
}

// MustNewDriver creates a driver and fails on error.
func (c *Config) MustNewDriver() *Driver {
	d, err := c.NewDriver()
	if err != nil {
		log.Fatalln(err)
	}
	return d
}

// NewPoller creates a Poller if polling is enabled.
func (c *Config) NewPoller(d *Driver) *Poller {
	if c.PollInterval <= 0 {
		return nil
	}
	return &Poller{Driver: d, Interval: c.PollInterval}
}
