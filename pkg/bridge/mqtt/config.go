package mqtt

import (
	"flag"
	"log"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/rover.go/pkg/rover"
)

// Config defines the bridge configurations.
type Config struct {
	// BrokerURL specifies the MQTT broker and topic prefix.
	// e.g. mqtt://host:port/topic-prefix
	BrokerURL string
	// RoverID is the topic segment identifying the rover,
	// defaults to an ID derived from the machine ID.
	RoverID string
}

var defaultConfig = Config{
	BrokerURL: "mqtt://localhost:1883/rover/",
}

func init() {
	if val := os.Getenv("ROVER_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
	if val := os.Getenv("ROVER_ID"); val != "" {
		defaultConfig.RoverID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.RoverID, "id", defaultConfig.RoverID, "Rover ID used in topics.")
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

// MachineID derives a stable rover ID from the machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID("rover")
	if err != nil {
		glog.Warningf("machine ID unavailable: %v", err)
		return "rover"
	}
	return id[:12]
}

// NewBridge creates the bridge for a driver.
func (c *Config) NewBridge(driver *rover.Driver) (*Bridge, error) {
	id := c.RoverID
	if id == "" {
		id = MachineID()
	}
	return NewBridge(c.BrokerURL, id, driver)
}

// MustNewBridge creates the bridge and fails on error.
func (c *Config) MustNewBridge(driver *rover.Driver) *Bridge {
	b, err := c.NewBridge(driver)
	if err != nil {
		log.Fatalln(err)
	}
	return b
}
