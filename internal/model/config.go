package model

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

// Default bind parameters. The GUI default must stay within AppRegPorts.
const (
	DefaultHost    = "localhost"
	DefaultAPIPort = 8001
	DefaultGUIPort = 8000
)

// AppRegPorts are the GUI ports known to the Azure App Registration. The
// GUI server refuses to start on any other port.
var AppRegPorts = []int{5173, 3000, 8000}

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

// Config holds launcher-wide settings: defaults from DefaultConfig,
// optionally overridden by fmu-settings.yaml, finally by CLI flags.
// Immutable once constructed at startup.
type Config struct {
	Host       string `json:"host" yaml:"host"`
	APIPort    int    `json:"api_port" yaml:"api_port"`
	GUIPort    int    `json:"gui_port" yaml:"gui_port"`
	Reload     bool   `json:"reload,omitempty" yaml:"reload,omitempty"`
	Verbose    bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	PrintToken bool   `json:"print_token,omitempty" yaml:"print_token,omitempty"`
	PrintURL   bool   `json:"print_url,omitempty" yaml:"print_url,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Host:    DefaultHost,
		APIPort: DefaultAPIPort,
		GUIPort: DefaultGUIPort,
	}
}

// LoadConfig validates YAML from r against the CUE schema and decodes it
// on top of the defaults. Unknown fields and out-of-range ports are
// schema errors.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	yamlFile, err := yaml.Extract("fmu-settings.yaml", r)
	if err != nil {
		return cfg, fmt.Errorf("reading yaml: %w", err)
	}
	value := cueCtx.BuildFile(yamlFile)
	if value.Err() != nil {
		return cfg, value.Err()
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cfg, err
	}

	if err := unified.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// ValidatePort rejects ports outside 1-65535 before any worker launch.
func ValidatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// APIConfig is everything the API server needs to run. Constructed once
// from parsed CLI options and passed by value to the worker.
type APIConfig struct {
	Host         string
	Port         int
	Token        string
	FrontendHost string
	FrontendPort int
	Reload       bool
}

func (c APIConfig) Validate() error {
	if err := ValidatePort("port", c.Port); err != nil {
		return err
	}
	if err := ValidatePort("gui-port", c.FrontendPort); err != nil {
		return err
	}
	if c.Token == "" {
		return fmt.Errorf("API server requires a session token")
	}
	return nil
}

// FrontendOrigin is the exact cross-origin the API allows requests from.
func (c APIConfig) FrontendOrigin() string {
	return fmt.Sprintf("http://%s:%d", c.FrontendHost, c.FrontendPort)
}

// GUIConfig is everything the GUI server needs to run. The token reaches
// the GUI through the browser URL fragment, not through this config.
type GUIConfig struct {
	Host string
	Port int
}

func (c GUIConfig) Validate() error {
	if err := ValidatePort("port", c.Port); err != nil {
		return err
	}
	if !slices.Contains(AppRegPorts, c.Port) {
		known := make([]string, len(AppRegPorts))
		for i, p := range AppRegPorts {
			known[i] = fmt.Sprintf("%d", p)
		}
		return fmt.Errorf("port %d is not known by the Azure App registration. Use one of %s",
			c.Port, strings.Join(known, ", "))
	}
	return nil
}
