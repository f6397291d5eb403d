// Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package config loads the description of a benchmark campaign from a TOML or YAML file.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/duke-git/lancet/v2/slice"
	"github.com/gvallee/go_hpc_omb/internal/pkg/output"
	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/implem"
	"github.com/gvallee/go_hpc_omb/pkg/launcher"
	"github.com/gvallee/go_util/pkg/util"
	"github.com/pingcap/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultLogLevel = "info"

	// StdoutOutput is the output name used to write results on the standard output
	StdoutOutput = "-"
)

var (
	messageSizeRE = regexp.MustCompile(`^\d+(:\d+)?$`)
	logLevels     = []string{"debug", "info", "warn", "error", "fatal"}
)

// Config is a benchmark campaign
type Config struct {
	RunDir      string   `toml:"run_dir" yaml:"run_dir"`
	Benchmarks  []string `toml:"benchmarks" yaml:"benchmarks"`
	Iterations  int      `toml:"iterations" yaml:"iterations"`
	Perhost     int      `toml:"perhost" yaml:"perhost"`
	MPIDebug    int      `toml:"mpi_debug" yaml:"mpi_debug"`
	MessageSize string   `toml:"message_size" yaml:"message_size"`
	Output      string   `toml:"output" yaml:"output"`
	Format      string   `toml:"format" yaml:"format"`
	LogLevel    string   `toml:"log_level" yaml:"log_level"`
	LogFile     string   `toml:"log_file" yaml:"log_file"`

	MPI     MPIConfig         `toml:"mpi" yaml:"mpi"`
	Hosts   []HostConfig      `toml:"hosts" yaml:"hosts"`
	SSH     SSHConfig         `toml:"ssh" yaml:"ssh"`
	Options []OptionConfig    `toml:"options" yaml:"options"`
	GEnv    map[string]string `toml:"genv" yaml:"genv"`
	NFS     NFSConfig         `toml:"nfs" yaml:"nfs"`
}

// MPIConfig describes the MPI implementation; when the vendor is not set, it is detected
// from the installation directory
type MPIConfig struct {
	Vendor     string `toml:"vendor" yaml:"vendor"`
	Version    string `toml:"version" yaml:"version"`
	InstallDir string `toml:"install_dir" yaml:"install_dir"`
	Prologue   string `toml:"prologue" yaml:"prologue"`
}

// HostConfig is one of the hosts of the campaign; the first one starts the benchmarks
type HostConfig struct {
	Address string `toml:"address" yaml:"address"`
	SSH     string `toml:"ssh" yaml:"ssh"`
	CPUs    int    `toml:"cpus" yaml:"cpus"`
}

// SSHConfig gathers the settings of the ssh client
type SSHConfig struct {
	Binary        string        `toml:"binary" yaml:"binary"`
	Options       []string      `toml:"options" yaml:"options"`
	WorkDir       string        `toml:"work_dir" yaml:"work_dir"`
	PollInterval  time.Duration `toml:"poll_interval" yaml:"poll_interval"`
	RobustTimeout time.Duration `toml:"robust_timeout" yaml:"robust_timeout"`
	Retries       int           `toml:"retries" yaml:"retries"`
}

// OptionConfig is an option of the benchmark executables
type OptionConfig struct {
	Flag  string `toml:"flag" yaml:"flag"`
	Value string `toml:"value" yaml:"value"`
}

// NFSConfig controls the sharing of the MPI installation and the benchmarks
type NFSConfig struct {
	Enabled    bool `toml:"enabled" yaml:"enabled"`
	ExportHost int  `toml:"export_host" yaml:"export_host"`
}

// Load reads a configuration file, the format being selected by the extension of the file
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is empty")
	}
	if !util.FileExists(path) {
		return nil, errors.Errorf("config file %s does not exist", path)
	}

	var cfg *Config
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		cfg, err = loadTOML(path)
	case ".yaml", ".yml":
		cfg, err = loadYAML(path)
	default:
		return nil, errors.Errorf("unsupported config format %q: %s", ext, path)
	}
	if err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTOML(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Annotate(err, "decode config failed")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown keys in config: %v", undecoded)
	}
	return &cfg, nil
}

func loadYAML(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "read config %s failed", path)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Annotate(err, "decode config failed")
	}
	return &cfg, nil
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return trimmed
}

func (c *Config) normalize() {
	c.RunDir = strings.TrimRight(strings.TrimSpace(c.RunDir), "/")
	if c.RunDir == "" {
		c.RunDir = launcher.DefaultRunDir
	}

	c.Benchmarks = trimAll(c.Benchmarks)
	if len(c.Benchmarks) == 0 {
		c.Benchmarks = benchmark.Names()
	}

	c.MessageSize = strings.TrimSpace(c.MessageSize)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	c.Output = strings.TrimSpace(c.Output)
	if c.Output == "" {
		c.Output = StdoutOutput
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		if strings.EqualFold(filepath.Ext(c.Output), ".csv") {
			c.Format = output.FormatCSV
		} else {
			c.Format = output.FormatJSON
		}
	}

	c.MPI.Vendor = strings.ToLower(strings.TrimSpace(c.MPI.Vendor))
	for i := range c.Hosts {
		c.Hosts[i].Address = strings.TrimSpace(c.Hosts[i].Address)
		c.Hosts[i].SSH = strings.TrimSpace(c.Hosts[i].SSH)
		if c.Hosts[i].SSH == "" {
			c.Hosts[i].SSH = c.Hosts[i].Address
		}
	}
	c.SSH.Options = trimAll(c.SSH.Options)
}

func (c *Config) validate() error {
	for _, name := range c.Benchmarks {
		if _, err := benchmark.Lookup(name); err != nil {
			return errors.Trace(err)
		}
	}
	if len(c.Hosts) == 0 {
		return errors.New("config has no host")
	}
	for i, h := range c.Hosts {
		if h.Address == "" {
			return errors.Errorf("host #%d has no address", i)
		}
		if h.CPUs < 0 {
			return errors.Errorf("invalid number of CPUs for host %s: %d", h.Address, h.CPUs)
		}
	}
	if c.Iterations < 0 {
		return errors.Errorf("iterations must be >= 0: %d", c.Iterations)
	}
	if c.Perhost < 0 {
		return errors.Errorf("perhost must be >= 0: %d", c.Perhost)
	}
	if c.MPIDebug < 0 {
		return errors.Errorf("mpi_debug must be >= 0: %d", c.MPIDebug)
	}
	if c.MessageSize != "" && !messageSizeRE.MatchString(c.MessageSize) {
		return errors.Errorf("invalid message size: %s", c.MessageSize)
	}
	if !slice.Contain(logLevels, c.LogLevel) {
		return errors.Errorf("unsupported log level: %s", c.LogLevel)
	}
	if c.LogFile != "" && !util.PathExists(filepath.Dir(c.LogFile)) {
		return errors.Errorf("directory of log file %s does not exist", c.LogFile)
	}
	if c.Format != output.FormatJSON && c.Format != output.FormatCSV {
		return errors.Errorf("unsupported output format: %s", c.Format)
	}
	if c.MPI.Vendor != "" && !implem.IsMPI(&implem.Info{ID: c.MPI.Vendor}) {
		return errors.Errorf("unsupported MPI vendor: %s", c.MPI.Vendor)
	}
	if c.MPI.Vendor == "" && c.MPI.InstallDir == "" && c.MPI.Prologue == "" {
		return errors.New("mpi requires a vendor, an install_dir or a prologue")
	}
	for _, o := range c.Options {
		if !strings.HasPrefix(o.Flag, "-") {
			return errors.Errorf("invalid benchmark option flag: %q", o.Flag)
		}
	}
	if c.SSH.PollInterval < 0 || c.SSH.RobustTimeout < 0 {
		return errors.New("ssh durations must be >= 0")
	}
	if c.SSH.Retries < 0 {
		return errors.Errorf("ssh retries must be >= 0: %d", c.SSH.Retries)
	}
	if c.NFS.Enabled && (c.NFS.ExportHost < 0 || c.NFS.ExportHost >= len(c.Hosts)) {
		return errors.Errorf("nfs export_host %d is not one of the %d hosts", c.NFS.ExportHost, len(c.Hosts))
	}
	return nil
}

// GEnvNames returns the names of the global environment variables in a stable order
func (c *Config) GEnvNames() []string {
	names := make([]string, 0, len(c.GEnv))
	for k := range c.GEnv {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
