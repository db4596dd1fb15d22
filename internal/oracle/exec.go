// Package oracle runs an external performance calculator.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/schema"
)

// Request kinds written to the calculator.
const (
	KindDifficulty  = "difficulty"
	KindPerformance = "performance"
)

// Envelope is the JSON document sent on the calculator's stdin.
type Envelope struct {
	Kind    string `json:"kind"`
	Request any    `json:"request"`
}

// Response is the JSON document read from the calculator's stdout.
// Exactly one field is expected to be set.
type Response struct {
	Difficulty  *schema.DifficultyAttributes  `json:"difficulty,omitempty"`
	Performance *schema.PerformanceAttributes `json:"performance,omitempty"`
	Error       string                        `json:"error,omitempty"`
}

// ExecOracle starts the configured command once per call.
type ExecOracle struct {
	command []string
	timeout time.Duration
}

var _ contract.Oracle = &ExecOracle{} // Compile-time check

// NewExecOracle returns an oracle running command (program then arguments).
func NewExecOracle(command []string, timeout time.Duration) (*ExecOracle, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("oracle command is empty")
	}
	if timeout <= 0 {
		timeout = contract.DefaultOracleTimeout
	}
	return &ExecOracle{command: command, timeout: timeout}, nil
}

// Difficulty implements contract.Oracle.
func (o *ExecOracle) Difficulty(ctx context.Context, req schema.DifficultyRequest) (schema.DifficultyAttributes, error) {
	res, err := o.run(ctx, KindDifficulty, req)
	if err != nil {
		return schema.DifficultyAttributes{}, err
	}
	if res.Difficulty == nil {
		return schema.DifficultyAttributes{}, fmt.Errorf("%w: response has no difficulty", contract.ErrOracle)
	}
	return *res.Difficulty, nil
}

// Performance implements contract.Oracle.
func (o *ExecOracle) Performance(ctx context.Context, req schema.PerformanceRequest) (schema.PerformanceAttributes, error) {
	res, err := o.run(ctx, KindPerformance, req)
	if err != nil {
		return schema.PerformanceAttributes{}, err
	}
	if res.Performance == nil {
		return schema.PerformanceAttributes{}, fmt.Errorf("%w: response has no performance", contract.ErrOracle)
	}
	return *res.Performance, nil
}

func (o *ExecOracle) run(parent context.Context, kind string, req any) (Response, error) {
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	in, err := json.Marshal(Envelope{Kind: kind, Request: req})
	if err != nil {
		return Response{}, fmt.Errorf("encode oracle request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.command[0], o.command[1:]...)
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if err := parent.Err(); err != nil {
			return Response{}, err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w: %s timed out after %s", contract.ErrOracle, kind, o.timeout)
		}
		return Response{}, fmt.Errorf("%w: %s: %w: %s", contract.ErrOracle, kind, err, strings.TrimSpace(stderr.String()))
	}

	var res Response
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return Response{}, fmt.Errorf("%w: decode %s response: %w", contract.ErrOracle, kind, err)
	}
	if res.Error != "" {
		return Response{}, fmt.Errorf("%w: %s", contract.ErrOracle, res.Error)
	}
	return res, nil
}
