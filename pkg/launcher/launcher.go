// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// Copyright (c) 2020-2024, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package launcher runs OSU Micro-Benchmarks on a set of hosts and turns their output
// into results.
package launcher

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gvallee/go_hpc_omb/internal/pkg/impi"
	"github.com/gvallee/go_hpc_omb/pkg/benchmark"
	"github.com/gvallee/go_hpc_omb/pkg/job"
	"github.com/gvallee/go_hpc_omb/pkg/mpi"
	"github.com/gvallee/go_hpc_omb/pkg/mpirun"
	"github.com/gvallee/go_hpc_omb/pkg/pinning"
	"github.com/gvallee/go_hpc_omb/pkg/sharedfs"
	"github.com/jonboulle/clockwork"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	// DefaultRunDir is where the benchmarks are installed by the OMB packages
	DefaultRunDir = "/usr/local/libexec/osu-micro-benchmarks/mpi"

	iterationsFlag  = "--iterations"
	messageSizeFlag = "-m"
	fullFlag        = "--full"
)

// ExecutableNotFoundError is returned when the executable of a benchmark cannot be found on a host
type ExecutableNotFoundError struct {
	Executable string
	Host       string
	Err        error
}

func (e *ExecutableNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to find %s on %s: %s", e.Executable, e.Host, e.Err)
	}
	return fmt.Sprintf("unable to find %s on %s", e.Executable, e.Host)
}

func (e *ExecutableNotFoundError) Unwrap() error {
	return e.Err
}

// Runner gathers all the details required to run benchmarks
type Runner struct {
	// MPI is the MPI implementation the benchmarks have been compiled with
	MPI mpi.Environment

	// RunDir is the directory where the benchmarks are installed, DefaultRunDir when empty
	RunDir string

	// Iterations is the number of iterations of the benchmarks, the benchmark default when 0
	Iterations int

	// Perhost is the number of ranks per host of the first variant, 1 when 0
	Perhost int

	// MPIDebug is the debug level of MPI, no debug when 0
	MPIDebug int

	// GlobalEnv is the set of environment variables passed to all ranks
	GlobalEnv []mpirun.EnvVar

	// Exporter is used to share directories between hosts when preparing them
	Exporter sharedfs.Exporter

	// Clock is used to measure run times, the real clock when nil
	Clock clockwork.Clock
}

func (r *Runner) runDir() string {
	if r.RunDir == "" {
		return DefaultRunDir
	}
	return r.RunDir
}

func (r *Runner) clock() clockwork.Clock {
	if r.Clock == nil {
		return clockwork.NewRealClock()
	}
	return r.Clock
}

// Variants returns the process layouts used to run a benchmark on a set of hosts.
// Single-threaded benchmarks only run with one rank per host, the others run once with
// perhost ranks per host and once with one rank per CPU.
func Variants(def *benchmark.Definition, hosts []job.Host, perhost int) []job.Variant {
	if len(hosts) == 0 {
		return nil
	}
	if def.SingleThreaded {
		return []job.Variant{{Perhost: 1, NumberProcesses: len(hosts)}}
	}
	start := perhost
	if start <= 0 {
		start = 1
	}
	perhosts := []int{start}
	if cpus := hosts[0].NumCPUs(); cpus > 0 && cpus != start {
		perhosts = append(perhosts, cpus)
	}
	variants := make([]job.Variant, 0, len(perhosts))
	for _, p := range perhosts {
		variants = append(variants, job.Variant{Perhost: p, NumberProcesses: p * len(hosts)})
	}
	return variants
}

// Params returns the options of a benchmark executable for a request
func (r *Runner) Params(def *benchmark.Definition, req *job.Request) mpirun.Options {
	var params mpirun.Options
	if r.Iterations > 0 {
		params = params.With(iterationsFlag, strconv.Itoa(r.Iterations))
	}
	if req.MessageSize != "" {
		size := req.MessageSize
		if !strings.Contains(size, ":") {
			size = size + ":" + size
		}
		params = params.With(messageSizeFlag, size)
	}
	for _, o := range req.Options {
		params = params.With(o.Flag, o.Value)
	}
	if def.SupportsFull {
		params = params.With(fullFlag, "")
	}
	return params
}

func (r *Runner) env(level int) []mpirun.EnvVar {
	if level <= 0 {
		return nil
	}
	name := r.MPI.DebugEnvVar()
	if name == "" {
		return nil
	}
	return []mpirun.EnvVar{{Name: name, Value: strconv.Itoa(level)}}
}

// The pinning of the ranks is only reported from a given debug level
func pinningDebugLevel(level int) int {
	return max(level, impi.PinningDebugLevel)
}

// locate finds the path to a benchmark executable on a host
func (r *Runner) locate(ctx context.Context, host job.Host, executable string) (string, error) {
	stdout, _, err := host.RunCommand(ctx, fmt.Sprintf("ls %s/*/%s", r.runDir(), executable))
	if err != nil {
		return "", &ExecutableNotFoundError{Executable: executable, Host: host.InternalIP(), Err: err}
	}
	for _, line := range strings.Split(stdout, "\n") {
		if path := strings.TrimSpace(line); path != "" {
			return path, nil
		}
	}
	return "", &ExecutableNotFoundError{Executable: executable, Host: host.InternalIP()}
}

// Execute starts a benchmark from the first host and returns its output and the command used to start it
func (r *Runner) Execute(ctx context.Context, name string, numberProcesses int, hosts []job.Host, options mpirun.Options, perhost int) (string, string, error) {
	def, err := benchmark.Lookup(name)
	if err != nil {
		return "", "", err
	}
	if len(hosts) == 0 {
		return "", "", fmt.Errorf("no host to run %s", name)
	}
	path, err := r.locate(ctx, hosts[0], def.ExecutableName())
	if err != nil {
		return "", "", err
	}
	if _, ok := options.Get(fullFlag); def.SupportsFull && !ok {
		options = options.With(fullFlag, "")
	}
	cmd := mpirun.Command{
		Prologue:     r.MPI.Prologue,
		Env:          r.env(r.MPIDebug),
		Perhost:      perhost,
		NumProcesses: numberProcesses,
		Hosts:        job.Addresses(hosts),
		GlobalEnv:    r.GlobalEnv,
		Executable:   path,
		Options:      options,
	}
	fullCmd := cmd.String()
	stdout, _, err := hosts[0].RunRobustCommand(ctx, fullCmd)
	if err != nil {
		return "", fullCmd, err
	}
	return stdout, fullCmd, nil
}

func (r *Runner) interpret(def *benchmark.Definition, req *job.Request, v job.Variant, params mpirun.Options, output string, fullCmd string) (*job.Result, error) {
	data, err := def.ParseData(output)
	if err != nil {
		return nil, err
	}
	pins, err := pinning.Parse(benchmark.SplitLines(output), len(req.Hosts))
	if err != nil {
		return nil, fmt.Errorf("invalid pinning in the output of %s: %w", def.Name, err)
	}
	return &job.Result{
		Name:            def.Name,
		Metadata:        benchmark.ParseMetadata(output),
		Data:            data,
		FullCmd:         fullCmd,
		Units:           def.Units,
		Params:          params,
		MPIVendor:       r.MPI.ID,
		MPIVersion:      r.MPI.Version,
		ValueColumn:     def.ValueColumn,
		NumberProcesses: v.NumberProcesses,
		Pinning:         pins,
		Perhost:         v.Perhost,
	}, nil
}

// Run runs a benchmark once per variant and returns the results as they are produced.
// The benchmark is not started until the sequence is consumed, and no more variant is run
// once the consumer stops. A failure to start the benchmark ends the sequence, while an
// output that cannot be interpreted only yields an error for the variant that produced it.
func (r *Runner) Run(ctx context.Context, req job.Request) iter.Seq2[*job.Result, error] {
	return func(yield func(*job.Result, error) bool) {
		if err := req.Validate(); err != nil {
			yield(nil, err)
			return
		}
		def, err := benchmark.Lookup(req.Benchmark)
		if err != nil {
			yield(nil, err)
			return
		}
		params := r.Params(def, &req)
		runID := uuid.NewString()
		clock := r.clock()

		for _, v := range Variants(def, req.Hosts, r.Perhost) {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			log.Info("running benchmark",
				zap.String("run", runID),
				zap.String("benchmark", def.Name),
				zap.Int("perhost", v.Perhost),
				zap.Int("np", v.NumberProcesses))

			start := clock.Now()
			output, fullCmd, err := r.Execute(ctx, def.Name, v.NumberProcesses, req.Hosts, params, v.Perhost)
			if err != nil {
				log.Warn("benchmark failed", zap.String("run", runID), zap.String("benchmark", def.Name), zap.Error(err))
				yield(nil, err)
				return
			}
			runTime := clock.Since(start)

			res, err := r.interpret(def, &req, v, params, output, fullCmd)
			if err != nil {
				log.Warn("unable to interpret benchmark output", zap.String("run", runID), zap.String("benchmark", def.Name), zap.Error(err))
				if !yield(nil, err) {
					return
				}
				continue
			}
			res.RunTime = runTime
			log.Info("benchmark completed",
				zap.String("run", runID),
				zap.String("benchmark", def.Name),
				zap.Int("np", v.NumberProcesses),
				zap.Duration("time", runTime),
				zap.Int("records", len(res.Data)))
			if !yield(res, nil) {
				return
			}
		}
	}
}

// RunBenchmarks runs a list of benchmarks one after the other and returns all the results
// as a single sequence
func (r *Runner) RunBenchmarks(ctx context.Context, reqs []job.Request) iter.Seq2[*job.Result, error] {
	return func(yield func(*job.Result, error) bool) {
		for _, req := range reqs {
			for res, err := range r.Run(ctx, req) {
				if !yield(res, err) {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// PrepareWorkers shares the MPI installation and the benchmarks between the hosts and
// checks that an MPI job can be started on all of them
func (r *Runner) PrepareWorkers(ctx context.Context, hosts []job.Host) error {
	if len(hosts) == 0 {
		return fmt.Errorf("no host to prepare")
	}
	exporter := r.Exporter
	if exporter == nil {
		exporter = sharedfs.None{}
	}

	if r.MPI.InstallDir != "" {
		if err := exporter.ExportAndMount(ctx, hosts, r.MPI.InstallDir); err != nil {
			return fmt.Errorf("unable to share the MPI installation: %w", err)
		}
	}

	hello, err := r.locate(ctx, hosts[0], "osu_hello")
	if err != nil {
		return err
	}
	ombDir := filepath.Dir(filepath.Dir(hello))
	if err := exporter.ExportAndMount(ctx, hosts, ombDir); err != nil {
		return fmt.Errorf("unable to share %s: %w", ombDir, err)
	}

	cmd := mpirun.Command{
		Prologue:     r.MPI.Prologue,
		Env:          r.env(pinningDebugLevel(r.MPIDebug)),
		Perhost:      1,
		NumProcesses: len(hosts),
		Hosts:        job.Addresses(hosts),
		GlobalEnv:    r.GlobalEnv,
		Executable:   hello,
	}
	stdout, stderr, err := hosts[0].RunRobustCommand(ctx, cmd.String())
	if err != nil {
		return err
	}
	if !strings.Contains(stdout, "Hello World") {
		return fmt.Errorf("unexpected output from %s: stdout: %s - stderr: %s", hello, stdout, stderr)
	}

	pins, err := pinning.Parse(benchmark.SplitLines(stdout), len(hosts))
	if err != nil {
		log.Warn("unable to parse the pinning of the test job", zap.Error(err))
		return nil
	}
	log.Info("hosts ready", zap.Strings("hosts", cmd.Hosts), zap.Strings("pinning", pins))
	return nil
}
