package model_test

import (
	"strings"
	"testing"

	"github.com/equinor/fmu-settings-cli/internal/model"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := model.DefaultConfig()
	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, 8001, cfg.APIPort)
	require.Equal(t, 8000, cfg.GUIPort)
	require.False(t, cfg.Reload)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	const yml = `
host: 0.0.0.0
api_port: 9001
verbose: true
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 9001, cfg.APIPort)
	// untouched fields keep their defaults
	require.Equal(t, 8000, cfg.GUIPort)
	require.True(t, cfg.Verbose)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Parallel()
	cases := []struct {
		scenario string
		given    string
	}{
		{"port_out_of_range", "api_port: 700000"},
		{"port_zero", "gui_port: 0"},
		{"unknown_field", "api_host: localhost"},
		{"wrong_type", "reload: sometimes"},
		{"empty_host", `host: ""`},
	}

	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			_, err := model.LoadConfig(strings.NewReader(tc.given))
			require.Error(t, err)
			details := model.CueErrDetails(err)
			require.NotEmpty(t, details)
		})
	}
}

func TestValidatePort(t *testing.T) {
	t.Parallel()
	require.NoError(t, model.ValidatePort("api-port", 1))
	require.NoError(t, model.ValidatePort("api-port", 65535))
	require.NoError(t, model.ValidatePort("api-port", 8000))

	err := model.ValidatePort("api-port", 0)
	require.EqualError(t, err, "api-port must be between 1 and 65535, got 0")
	require.Error(t, model.ValidatePort("api-port", -1))
	require.Error(t, model.ValidatePort("api-port", 65536))
}

func TestAPIConfigValidate(t *testing.T) {
	t.Parallel()
	valid := model.APIConfig{
		Host:         "localhost",
		Port:         8001,
		Token:        "deadbeef",
		FrontendHost: "localhost",
		FrontendPort: 8000,
	}
	require.NoError(t, valid.Validate())
	require.Equal(t, "http://localhost:8000", valid.FrontendOrigin())

	noToken := valid
	noToken.Token = ""
	require.EqualError(t, noToken.Validate(), "API server requires a session token")

	badPort := valid
	badPort.Port = 0
	require.Error(t, badPort.Validate())

	badFrontend := valid
	badFrontend.FrontendPort = 100000
	require.Error(t, badFrontend.Validate())
}

func TestGUIConfigValidate(t *testing.T) {
	t.Parallel()
	for _, port := range model.AppRegPorts {
		require.NoError(t, model.GUIConfig{Host: "localhost", Port: port}.Validate())
	}

	err := model.GUIConfig{Host: "localhost", Port: 9999}.Validate()
	require.EqualError(t, err,
		"port 9999 is not known by the Azure App registration. Use one of 5173, 3000, 8000")

	require.Error(t, model.GUIConfig{Host: "localhost", Port: 0}.Validate())
}
