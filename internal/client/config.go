package client

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/investai/radar/pkg/metrics"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/yaml"
)

// Config is the content of the client configuration file.
type Config struct {
	Service Service `json:"service"`
}

// Service locates the screening service.
type Service struct {
	// Server is the base URL, without the /api suffix.
	Server string `json:"server"`
}

func NewDefault() *Config {
	return &Config{}
}

// DefaultConfigPath is ~/.radar/client.yaml.
func DefaultConfigPath() string {
	return filepath.Join(homedir.HomeDir(), ".radar", "client.yaml")
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", filename, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WriteConfig validates server and stores it as the only setting of filename.
func WriteConfig(filename string, server string) error {
	config := &Config{Service: Service{Server: server}}
	if err := config.Validate(); err != nil {
		return err
	}
	return config.Persist(filename)
}

// Persist writes the config readable by the current user only.
func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if errs := serverErrors(c.Service.Server); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", utilerrors.NewAggregate(errs).Error())
	}
	return nil
}

func serverErrors(server string) []error {
	if server == "" {
		return []error{fmt.Errorf("no server found")}
	}
	u, err := url.Parse(server)
	if err != nil {
		return []error{fmt.Errorf("invalid server format %q: %w", server, err)}
	}

	var errs []error
	if u.Hostname() == "" {
		errs = append(errs, fmt.Errorf("invalid server format %q: no hostname", server))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("invalid server format %q: scheme must be http or https", server))
	}
	return errs
}

// NewFromConfig returns a jobs client for the configured server.
func NewFromConfig(config *Config) (*JobsClient, error) {
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("NewFromConfig: creating HTTP client %w", err)
	}
	return NewJobsClient(config.Service.Server, httpClient), nil
}

// NewHTTPClientFromConfig returns an HTTP client without an overall timeout.
// Status polls are bounded by their context only.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	transport, err := instrumentedTransport()
	if err != nil {
		return nil, fmt.Errorf("configuring metrics transport: %w", err)
	}
	return &http.Client{Transport: transport}, nil
}

var (
	transportOnce   sync.Once
	sharedTransport *metrics.Transport
	transportErr    error
)

// instrumentedTransport is shared by every client of the process so its collectors register once.
func instrumentedTransport() (*metrics.Transport, error) {
	transportOnce.Do(func() {
		base := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: time.Second,
		}
		sharedTransport, transportErr = metrics.NewTransport("jobs", base)
		if transportErr == nil {
			sharedTransport.MustRegisterDefault()
		}
	})
	return sharedTransport, transportErr
}
