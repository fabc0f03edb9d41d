// Package config loads testsync.yaml, applies defaults and environment
// overrides, and validates the result against an embedded CUE schema.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "testsync.yaml"

// Environment variables consulted after the file is loaded.
const (
	EnvToken       = "AZURE_PAT"
	EnvPlanID      = "PLAN_ID"
	EnvRootSuiteID = "ROOT_SUITE_ID"
	EnvSuiteID     = "SUITE_ID"
	EnvRunID       = "RUN_ID"
)

// DefaultQuery selects test cases flagged as automated for both EAT and SIT.
const DefaultQuery = "SELECT [System.Id],[System.WorkItemType],[System.Title]," +
	"[Microsoft.VSTS.Common.Priority],[System.AssignedTo],[System.AreaPath] " +
	"FROM WorkItems WHERE [System.TeamProject] = @project " +
	"AND [System.WorkItemType] IN GROUP 'Microsoft.TestCaseCategory' " +
	"AND [Jio.Common.FEAutomationStatus] IN ('EAT and SIT Automated')"

// Config is the resolved configuration.
type Config struct {
	ServerURL          string `yaml:"server_url" json:"server_url"`
	APIVersion         string `yaml:"api_version" json:"api_version"`
	TimeoutSeconds     int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
	StoreDir           string `yaml:"store_dir" json:"store_dir"`
	MetricsFile        string `yaml:"metrics_file" json:"metrics_file"`

	Plan  PlanConfig  `yaml:"plan" json:"plan"`
	Suite SuiteConfig `yaml:"suite" json:"suite"`
	Run   RunConfig   `yaml:"run" json:"run"`

	// Env holds values that only ever come from the environment.
	Env Env `yaml:"-" json:"-"`
}

type PlanConfig struct {
	Name          string `yaml:"name" json:"name"`
	AreaPath      string `yaml:"area_path" json:"area_path"`
	IterationPath string `yaml:"iteration_path" json:"iteration_path"`
}

type SuiteConfig struct {
	Name  string `yaml:"name" json:"name"`
	Query string `yaml:"query" json:"query"`
}

type RunConfig struct {
	Name string `yaml:"name" json:"name"`
}

// Env carries the access token and the resource id overrides.
// A zero id means "not supplied".
type Env struct {
	Token       string
	PlanID      int64
	RootSuiteID int64
	SuiteID     int64
	RunID       int64
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequireServer fails when no server_url is configured. Only commands that
// talk to the service call it.
func (c Config) RequireServer() error {
	if c.ServerURL == "" {
		return &Error{Field: "server_url", Message: "required to reach the test-management service"}
	}
	return nil
}

// Default returns the configuration used for any field the file leaves out.
func Default() Config {
	return Config{
		APIVersion:     "5.0",
		TimeoutSeconds: 30,
		StoreDir:       "target",
		Plan: PlanConfig{
			Name: "Automation Test Plan",
		},
		Suite: SuiteConfig{
			Name:  "Automation Test Suite",
			Query: DefaultQuery,
		},
		Run: RunConfig{
			Name: "Automation Test Run",
		},
	}
}

// Error reports an invalid configuration. Callers map it to a usage exit code.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := "config: " + e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is (or wraps) a configuration error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Load reads path, applies environment overrides from lookup and validates.
// A missing file at DefaultPath is not an error: defaults and the environment
// still have to produce a valid config.
func Load(path string, lookup LookupFunc) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		data = nil
	default:
		return Config{}, &Error{Message: fmt.Sprintf("read %s", path), Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default(). Unknown keys are rejected.
// It does not validate; see Validate.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &Error{Message: "parse yaml", Err: err}
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return cfg, nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvToken); ok {
		c.Env.Token = strings.TrimSpace(v)
	}

	ids := []struct {
		key string
		dst *int64
	}{
		{EnvPlanID, &c.Env.PlanID},
		{EnvRootSuiteID, &c.Env.RootSuiteID},
		{EnvSuiteID, &c.Env.SuiteID},
		{EnvRunID, &c.Env.RunID},
	}
	for _, id := range ids {
		v, ok := lookup(id.key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return &Error{Field: id.key, Message: fmt.Sprintf("must be a positive integer, got %q", v), Err: err}
		}
		*id.dst = n
	}
	return nil
}
