// Package docker is the containerized model backend. It runs a model image
// through the Docker Engine API, keeping a pool of pre-warmed containers and
// exec-ing the model command once per prediction.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/grade-predictor/internal/feature"
)

// errTimeout marks a prediction that exceeded Config.Timeout.
var errTimeout = errors.New("docker: model timed out")

// Runtime implements predictor.Model on top of Docker.
type Runtime struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New connects to the Docker daemon from the environment, optionally pulls
// the image, and starts the container pool.
func New(cfg Config, logger *slog.Logger) (*Runtime, error) {
	if cfg.Image == "" || len(cfg.Command) == 0 {
		return nil, fmt.Errorf("docker: image and command are required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}

	if cfg.Pull {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		logger.Info("pulling model image", slog.String("image", cfg.Image))
		reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
		if err != nil {
			cli.Close()
			return nil, fmt.Errorf("docker: pulling image %s: %w", cfg.Image, err)
		}
		// Draining the stream blocks until the pull completes.
		_, _ = io.Copy(io.Discard, reader)
		reader.Close()
		logger.Info("model image is ready", slog.String("image", cfg.Image))
	}

	r := &Runtime{
		cli:    cli,
		config: cfg,
		logger: logger,
		pool:   NewPool(cli, cfg, logger),
	}
	r.pool.Start()

	return r, nil
}

// Name identifies the backend on logs and metrics.
func (r *Runtime) Name() string { return "docker" }

// Close shuts down the pool and the Docker client.
func (r *Runtime) Close() error {
	r.pool.Stop()
	return r.cli.Close()
}

// Predict runs the model command with v as its final argument.
func (r *Runtime) Predict(ctx context.Context, v feature.Vector) (float64, error) {
	arg, err := encodeVector(v)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	containerID, err := r.pool.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("docker: waiting for a model container: %w", err)
	}

	stdout, stderr, exitCode, err := r.exec(ctx, containerID, arg)
	if err != nil || exitCode != 0 {
		r.pool.Discard(containerID)
		if err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("docker: model exited with code %d: %s", exitCode, strings.TrimSpace(stderr))
	}
	r.pool.Put(containerID)

	return parseOutput(stdout)
}

// exec runs one model command inside containerID and collects its output.
func (r *Runtime) exec(ctx context.Context, containerID, arg string) (string, string, int, error) {
	cmd := append(append([]string(nil), r.config.Command...), arg)

	execResp, err := r.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          cmd,
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("docker: creating exec: %w", err)
	}

	attachResp, err := r.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return "", "", 0, fmt.Errorf("docker: attaching to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", 0, fmt.Errorf("%w after %s", errTimeout, r.config.Timeout)
		}
		return "", "", 0, ctx.Err()
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return "", "", 0, fmt.Errorf("docker: inspecting exec: %w", err)
	}

	return stdout.String(), stderr.String(), inspect.ExitCode, nil
}

// encodeVector renders v as one JSON object keyed by column name. Keys are
// written in vector order, so a runtime that builds its input row from the
// object's key order sees the canonical column order.
func encodeVector(v feature.Vector) (string, error) {
	if len(v) == 0 {
		return "", fmt.Errorf("docker: empty feature vector")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, val := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(val.Column)
		if err != nil {
			return "", fmt.Errorf("docker: encoding column %q: %w", val.Column, err)
		}
		var cell any = val.Num
		if val.Kind == feature.Categorical {
			cell = val.Cat
		}
		b, err := json.Marshal(cell)
		if err != nil {
			return "", fmt.Errorf("docker: encoding %s: %w", val.Column, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// parseOutput takes the last non-empty stdout line as the score, so model
// scripts may log before printing their answer.
func parseOutput(stdout string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return 0, fmt.Errorf("docker: model printed nothing")
	}

	// Single-row array outputs such as "[14.56]" are accepted too.
	last = strings.TrimSuffix(strings.TrimPrefix(last, "["), "]")

	f, err := strconv.ParseFloat(strings.TrimSpace(last), 64)
	if err != nil {
		return 0, fmt.Errorf("docker: parsing model output %q: %w", last, err)
	}
	return f, nil
}
