// Package process executes intents by running allow-listed local commands.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/logging"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Environment variables set for every command.
const (
	EnvEntityID    = "OMNIBASE_ENTITY_ID"
	EnvIntentID    = "OMNIBASE_INTENT_ID"
	EnvIntentType  = "OMNIBASE_INTENT_TYPE"
	EnvTarget      = "OMNIBASE_TARGET"
	EnvParamPrefix = "OMNIBASE_PARAM_"
)

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Target  string
	Command string
	Args    []string
	Env     map[string]string
}

// Dispatcher implements ports.IntentDispatcher by running one command per matching intent.
// Only registered commands run: intents with no registration are skipped.
// The intent JSON is written to the command's stdin. Scalar action params are also
// exposed as OMNIBASE_PARAM_<KEY> so that payload values never become command flags.
type Dispatcher struct {
	registry map[domain.IntentType][]RegisteredProcess
	baseDir  string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithEffects populates the allow-list from a loaded config.
func WithEffects(effects []EffectConfig) Option {
	return func(d *Dispatcher) {
		for _, e := range effects {
			d.Register(domain.IntentType(e.IntentType), RegisteredProcess{
				Target:  e.Target,
				Command: e.Command,
				Args:    e.Args,
				Env:     e.Environment,
			})
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(d *Dispatcher) {
		d.baseDir = dir
	}
}

// WithTimeout bounds each command. Zero means no bound beyond the dispatch context.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a process dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: make(map[domain.IntentType][]RegisteredProcess),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a trusted command for an intent type.
// An empty Target matches every intent of that type.
func (d *Dispatcher) Register(t domain.IntentType, proc RegisteredProcess) {
	d.registry[t] = append(d.registry[t], proc)
}

func (d *Dispatcher) lookup(intent domain.Intent) (RegisteredProcess, bool) {
	for _, p := range d.registry[intent.Type] {
		if p.Target == "" || p.Target == intent.Target {
			return p, true
		}
	}
	return RegisteredProcess{}, false
}

// Dispatch runs the commands in intent order. The first failing command stops the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, entityID string, intents []domain.Intent) error {
	for _, intent := range intents {
		proc, ok := d.lookup(intent)
		if !ok {
			d.logger.Debug("no effect registered", "intent_type", string(intent.Type), "target", intent.Target)
			continue
		}
		if err := d.run(ctx, entityID, intent, proc); err != nil {
			return fmt.Errorf("effect for intent %s failed: %w", intent.ID, err)
		}
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context, entityID string, intent domain.Intent, proc RegisteredProcess) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	body, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = d.baseDir
	cmd.Stdin = bytes.NewReader(body)
	cmd.Env = append(cmd.Environ(), environment(entityID, intent, proc.Env)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", proc.Command, err, strings.TrimSpace(stderr.String()))
	}
	d.logger.Debug("effect executed",
		"intent_id", intent.ID, "intent_type", string(intent.Type), "command", proc.Command,
		"duration", time.Since(start))
	return nil
}

func environment(entityID string, intent domain.Intent, extra map[string]string) []string {
	env := []string{
		EnvEntityID + "=" + entityID,
		EnvIntentID + "=" + intent.ID,
		EnvIntentType + "=" + string(intent.Type),
		EnvTarget + "=" + intent.Target,
	}
	if params, ok := intent.Payload[domain.PayloadActionParams].(domain.Map); ok {
		for k, v := range params {
			switch v.(type) {
			case domain.Map, domain.List:
				continue
			}
			env = append(env, EnvParamPrefix+strings.ToUpper(k)+"="+v.String())
		}
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
