//revive:disable:line-length-limit
package msdsim

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/arloliu/msdsim/telemetry"
)

// Config is the complete service configuration.
type Config struct {
	// Autosend publishes every scenario's initial snapshot during initialization.
	Autosend bool `yaml:"autosend" env:"MSD_AUTOSEND" default:"true"`

	// InitializeOnStart initializes the scenarios at startup instead of waiting
	// for a startupComplete event on the bus.
	InitializeOnStart bool `yaml:"initializeOnStart" env:"MSD_INITIALIZE_ON_START" default:"false"`

	Webserver    WebserverConfig    `yaml:"webserver"`
	Sink         SinkConfig         `yaml:"sink"`
	Bus          BusConfig          `yaml:"bus"`
	StatusSignal StatusSignalConfig `yaml:"statusSignal"`
	Processes    ProcessConfig      `yaml:"processes"`
	Machine      MachineConfig      `yaml:"machine"`
	Station      StationConfig      `yaml:"station"`
	Simulation   SimulationConfig   `yaml:"simulation"`
	Log          LogConfig          `yaml:"log"`
	Telemetry    telemetry.Config   `yaml:"telemetry"`
}

// WebserverConfig configures the control surface.
type WebserverConfig struct {
	Port      int    `yaml:"port" env:"MSD_WEBSERVER_PORT" default:"8080" validate:"gt=0,lte=65535"`
	BasePath  string `yaml:"basePath" env:"MSD_WEBSERVER_BASE_PATH" default:"/services/msd"`
	StaticDir string `yaml:"staticDir" env:"MSD_WEBSERVER_STATIC_DIR" default:"www"`
}

// Addr returns the listen address.
func (c WebserverConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// SinkConfig locates the data ingestion service.
type SinkConfig struct {
	Host        string        `yaml:"host" env:"MSD_SINK_HOST" default:"localhost" validate:"required"`
	Port        int           `yaml:"port" env:"MSD_SINK_PORT" default:"8081" validate:"gt=0,lte=65535"`
	Secure      bool          `yaml:"secure" env:"MSD_SINK_SECURE" default:"false"`
	BasePath    string        `yaml:"basePath" env:"MSD_SINK_BASE_PATH" default:"/services/mid"`
	Timeout     time.Duration `yaml:"timeout" env:"MSD_SINK_TIMEOUT" default:"10s" validate:"gte=0"`
	ContentType string        `yaml:"contentType" env:"MSD_SINK_CONTENT_TYPE" default:"json" validate:"oneof=json msgpack"`
}

// BaseURL returns scheme, host, port and base path of the sink.
func (c SinkConfig) BaseURL() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.BasePath)
}

// BusConfig configures the NATS JetStream event bus.
type BusConfig struct {
	Enabled       bool          `yaml:"enabled" env:"MSD_BUS_ENABLED" default:"false"`
	URL           string        `yaml:"url" env:"NATS_URL" default:"nats://127.0.0.1:4222"`
	Stream        string        `yaml:"stream" env:"MSD_BUS_STREAM" default:"APPSIST"`
	SubjectPrefix string        `yaml:"subjectPrefix" env:"MSD_BUS_SUBJECT_PREFIX" default:"appsist.event"`
	Durable       string        `yaml:"durable" env:"MSD_BUS_DURABLE" default:"msd"`
	ConnectWait   time.Duration `yaml:"connectWait" env:"MSD_BUS_CONNECT_WAIT" default:"5s" validate:"gte=0"`
}

// StatusSignalConfig configures the heartbeat sent on the event bus. It has no
// effect while the bus is disabled.
type StatusSignalConfig struct {
	Enabled  bool          `yaml:"enabled" env:"MSD_STATUS_SIGNAL_ENABLED" default:"true"`
	Service  string        `yaml:"service" env:"MSD_STATUS_SIGNAL_SERVICE" default:"msd" validate:"required"`
	Interval time.Duration `yaml:"interval" env:"MSD_STATUS_SIGNAL_INTERVAL" default:"30s" validate:"gt=0"`
}

// ProcessConfig maps completed process ids to refill actions.
type ProcessConfig struct {
	LoctiteProcessID string `yaml:"loctiteProcessId" env:"MSD_LOCTITE_PROCESS_ID"`
	FatProcessID     string `yaml:"fatProcessId" env:"MSD_FAT_PROCESS_ID"`
}

// MachineConfig is the identity reported in weld seam error events.
type MachineConfig struct {
	VendorID     string `yaml:"vendorId" env:"MSD_MACHINE_VENDOR_ID"`
	MachineID    string `yaml:"machineId" env:"MSD_MACHINE_ID"`
	SerialNumber string `yaml:"serialNumber" env:"MSD_MACHINE_SERIAL_NUMBER"`
}

// StationConfig is the location reported in weld seam error events.
type StationConfig struct {
	StationID string `yaml:"stationId" env:"MSD_STATION_ID"`
	SiteID    string `yaml:"siteId" env:"MSD_SITE_ID"`
}

// SimulationConfig sets the periods of the two randomised generators.
type SimulationConfig struct {
	FastPeriod time.Duration `yaml:"fastPeriod" env:"MSD_SIMULATION_FAST_PERIOD" default:"10ms" validate:"gt=0"`
	SlowPeriod time.Duration `yaml:"slowPeriod" env:"MSD_SIMULATION_SLOW_PERIOD" default:"100ms" validate:"gt=0"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"MSD_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"MSD_LOG_FORMAT" default:"json" validate:"oneof=json console"`
}
