package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/equinor/fmu-settings-cli/internal/launcher"
	"github.com/equinor/fmu-settings-cli/internal/log"
	"github.com/equinor/fmu-settings-cli/internal/model"
	"github.com/equinor/fmu-settings-cli/internal/server"
	"github.com/equinor/fmu-settings-cli/internal/token"
	"gopkg.in/yaml.v3"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	userConfigPath string // /default/config/path/fmu-settings on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "fmu-settings")

	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is fmu-settings.yaml in current directory or in "+userConfigPath)
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	rootCmd.Flags().Int("api-port", model.DefaultAPIPort, fmt.Sprintf("Port to run the API on (default: %d)", model.DefaultAPIPort))
	rootCmd.Flags().Int("gui-port", model.DefaultGUIPort, fmt.Sprintf("Port to run the GUI on (default: %d)", model.DefaultGUIPort))
	rootCmd.Flags().String("host", model.DefaultHost, fmt.Sprintf("Host to bind the API and GUI servers to (default: %s)", model.DefaultHost))
	rootCmd.Flags().Bool("reload", false, "Enable auto-reload for development")

	apiCmd.Flags().Int("port", model.DefaultAPIPort, fmt.Sprintf("Port to run the API on (default: %d)", model.DefaultAPIPort))
	apiCmd.Flags().String("host", model.DefaultHost, fmt.Sprintf("Host to bind the API server to (default: %s)", model.DefaultHost))
	apiCmd.Flags().String("gui-host", model.DefaultHost, "Host the GUI sends requests from. Sets the CORS host.")
	apiCmd.Flags().Int("gui-port", model.DefaultGUIPort, "Port the GUI sends requests from. Sets the CORS port.")
	apiCmd.Flags().Bool("reload", false, "Enable auto-reload for development")
	apiCmd.Flags().Bool("print-token", false, "Prints the token the API requires for authorization. Used for development.")
	apiCmd.Flags().Bool("print-url", false, "Prints the authorized URL a user would be directed to. Used for development.")

	guiCmd.Flags().Int("port", model.DefaultGUIPort, fmt.Sprintf("Port to run the GUI on (default: %d)", model.DefaultGUIPort))
	guiCmd.Flags().String("host", model.DefaultHost, fmt.Sprintf("Host to bind the GUI server to (default: %s)", model.DefaultHost))

	// never print messages
	rootCmd.SilenceErrors = true

	// parse or create a config, setup logging
	rootCmd.PersistentPreRunE = initSettings

	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fmu-settings failed", "err", err)
		os.Exit(model.ExitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:          "fmu-settings",
	Short:        "FMU Settings - Manage your FMU project's settings",
	SilenceUsage: true,
	RunE:         doStart,
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	RunE:  doAPI,
}

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Start the GUI server",
	RunE:  doGUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides the version of fmu-settings",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("fmu-settings: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:       %s\n", configPath)
		}
		fmt.Printf("fmu-settings: %s\n", info.Main.Version)
		fmt.Printf("go:           %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:       %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:         %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:        %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

// doStart runs dual-service mode: both servers under supervision plus
// the browser task.
func doStart(cmd *cobra.Command, _ []string) error {
	ctx := log.ContextAttrs(cmd.Context(), launchAttrs("start"))

	host := stringFlag(cmd, "host", config.Host)
	apiPort := intFlag(cmd, "api-port", config.APIPort)
	guiPort := intFlag(cmd, "gui-port", config.GUIPort)
	reload := boolFlag(cmd, "reload", config.Reload)

	if err := model.ValidatePort("api-port", apiPort); err != nil {
		return err
	}
	if err := model.ValidatePort("gui-port", guiPort); err != nil {
		return err
	}

	tok, err := sessionToken()
	if err != nil {
		return err
	}

	supervisor := launcher.New(launcher.Options{
		Host:    host,
		APIPort: apiPort,
		GUIPort: guiPort,
		Reload:  reload,
	}, tok)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return supervisor.Run(ctx)
}

// doAPI runs the API server in the foreground, either as a supervised
// worker or standalone.
func doAPI(cmd *cobra.Command, _ []string) error {
	tok, err := sessionToken()
	if err != nil {
		return err
	}

	guiHost := stringFlag(cmd, "gui-host", config.Host)
	guiPort := intFlag(cmd, "gui-port", config.GUIPort)

	if boolFlag(cmd, "print-token", config.PrintToken) || viper.GetBool("print_token") {
		fmt.Println("API Token:", tok)
	}
	if boolFlag(cmd, "print-url", config.PrintURL) || viper.GetBool("print_url") {
		fmt.Println("Authorized URL:", token.AuthorizedURL(guiHost, guiPort, tok))
	}

	cfg := model.APIConfig{
		Host:         stringFlag(cmd, "host", config.Host),
		Port:         intFlag(cmd, "port", config.APIPort),
		Token:        string(tok),
		FrontendHost: guiHost,
		FrontendPort: guiPort,
		Reload:       boolFlag(cmd, "reload", config.Reload),
	}

	ctx, stop := workerContext(cmd)
	defer stop()
	return server.RunAPI(ctx, cfg)
}

// doGUI runs the GUI server in the foreground, either as a supervised
// worker or standalone.
func doGUI(cmd *cobra.Command, _ []string) error {
	cfg := model.GUIConfig{
		Host: stringFlag(cmd, "host", config.Host),
		Port: intFlag(cmd, "port", config.GUIPort),
	}

	ctx, stop := workerContext(cmd)
	defer stop()
	return server.RunGUI(ctx, cfg)
}

// workerContext prepares signal handling for a server process. A
// supervised worker ignores terminal interrupts: those are aimed at the
// supervisor, which terminates its workers explicitly.
func workerContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := log.ContextAttrs(cmd.Context(), launchAttrs(cmd.Name()))
	if viper.GetBool("supervised") {
		signal.Ignore(os.Interrupt, syscall.SIGTERM)
		return ctx, func() {}
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func launchAttrs(command string) slog.Attr {
	return slog.Group("fmu",
		slog.String("cmd", command),
		slog.Int("pid", os.Getpid()),
		slog.String("session", uuid.NewString()),
	)
}

// sessionToken returns the token inherited from the supervisor's
// environment, or generates a fresh one for a standalone run.
func sessionToken() (token.Token, error) {
	if s := viper.GetString("token"); s != "" {
		tok, err := token.Parse(s)
		if err != nil {
			return "", fmt.Errorf("invalid %s: %w", launcher.EnvToken, err)
		}
		return tok, nil
	}
	tok, err := token.New()
	if err != nil {
		return "", fmt.Errorf("generating auth token: %w", err)
	}
	return tok, nil
}

func initSettings(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("FMU_SETTINGS_CONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else {
		for _, d := range []string{userConfigPath, "."} {
			path := filepath.Join(d, "fmu-settings.yaml")
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	// store default configuration
	if configPath == "" {
		config = model.DefaultConfig()
		configPath = filepath.Join(userConfigPath, "fmu-settings.yaml")
		err := os.MkdirAll(filepath.Dir(configPath), 0755)
		if err != nil {
			return fmt.Errorf("creating directory %s: %w", filepath.Dir(configPath), err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("creating file %s: %w", configPath, err)
		}
		defer func() {
			_ = f.Close()
		}()
		enc := yaml.NewEncoder(f)
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("storing configuration: %w", err)
		}
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error(d)
			}
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	// --verbose has a precedence over config file
	if flagVerbose {
		config.Verbose = true
	}

	// environment toggles: FMU_SETTINGS_PRINT_TOKEN, FMU_SETTINGS_PRINT_URL,
	// FMU_SETTINGS_TOKEN, FMU_SETTINGS_SUPERVISED
	viper.SetEnvPrefix("fmu_settings")
	viper.AutomaticEnv()

	slog.SetDefault(log.New(config.Verbose))

	slog.Debug("fmu-settings run", "configPath", configPath)
	slog.Debug("fmu-settings run", "config", config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

func stringFlag(cmd *cobra.Command, name string, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func boolFlag(cmd *cobra.Command, name string, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return fallback
}
