package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the optional YAML settings file. It only carries the
// operator's standing preferences; anything the CLI flags set directly
// takes precedence over it.
type Settings struct {
	Output  string        `yaml:"output"`
	Proxies ProxySettings `yaml:"proxies"`
}

// ProxySettings holds default local listener ports. Zero means "not set":
// the synthesizer substitutes its own built-in defaults.
type ProxySettings struct {
	HTTPPort  int `yaml:"http_port"`
	SocksPort int `yaml:"socks_port"`
}

// Load reads settings from path. An empty path returns built-in defaults
// without touching the filesystem; a path that cannot be read or parsed
// is an error, since the operator asked for that file explicitly.
func Load(path string) (*Settings, error) {
	var s Settings
	// Defaults
	s.Output = "config.json"

	if path == "" {
		return &s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings yaml: %w", err)
	}

	if err := checkPort("proxies.http_port", s.Proxies.HTTPPort); err != nil {
		return nil, err
	}
	if err := checkPort("proxies.socks_port", s.Proxies.SocksPort); err != nil {
		return nil, err
	}
	if s.Output == "" {
		s.Output = "config.json"
	}

	return &s, nil
}

func checkPort(name string, port int) error {
	if port != 0 && (port < 1 || port > 65535) {
		return fmt.Errorf("%s should be in range of 1..65535", name)
	}
	return nil
}
