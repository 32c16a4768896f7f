package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/session"
	"go.uber.org/zap"
)

// Runner defaults
const (
	DefaultStepDelay = 2 * time.Second
	DefaultMaxLoops  = 100
)

// Device is the emulated panel a sequence drives. *session.Session
// implements it.
type Device interface {
	Connect(ctx context.Context) session.ConnectResult
	Disconnect(ctx context.Context) bool
	Touch(x, y int)
	TouchButton(id int) bool
	TouchText(text string) bool
	HasText(text string) bool
	HasButton(id int) bool
}

// FailureKind classifies why a sequence stopped
type FailureKind int

const (
	// FailAction is a primitive that did not succeed
	FailAction FailureKind = iota
	// FailLoopLimit is a while loop whose condition still held after MaxLoops
	FailLoopLimit
	// FailCancelled is a cancelled context
	FailCancelled
)

func (k FailureKind) String() string {
	switch k {
	case FailAction:
		return "action failed"
	case FailLoopLimit:
		return "loop limit reached"
	case FailCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Failure describes the step that aborted a sequence
type Failure struct {
	Index  int
	Step   string
	Kind   FailureKind
	Reason string
	// Connect is set when a connect step failed
	Connect *session.ConnectResult
}

func (f *Failure) Error() string {
	return fmt.Sprintf("step %d (%s): %s", f.Index, f.Step, f.Reason)
}

// StepResult records a completed step
type StepResult struct {
	Index  int
	Step   string
	Detail string
}

// Result is the outcome of Run
type Result struct {
	Completed []StepResult
	Failure   *Failure
}

// OK reports whether every step completed
func (r Result) OK() bool {
	return r.Failure == nil
}

// Runner executes sequences against a device
type Runner struct {
	Device    Device
	StepDelay time.Duration
	MaxLoops  int
}

// NewRunner creates a runner with the default delay and loop limit
func NewRunner(d Device) *Runner {
	return &Runner{Device: d, StepDelay: DefaultStepDelay, MaxLoops: DefaultMaxLoops}
}

// Run executes seq in order and stops at the first failing step. A delay
// follows every primitive step, every loop iteration and every finished
// loop; branches run their action without one.
func (r *Runner) Run(ctx context.Context, seq Sequence) Result {
	var res Result
	for i, step := range seq {
		logging.Debug("Automation step", zap.Int("index", i), zap.Stringer("step", step))

		detail, f := r.runStep(ctx, step)
		if f != nil {
			f.Index, f.Step = i, step.String()
			logging.Warn("Automation aborted",
				zap.Int("index", i),
				zap.Stringer("step", step),
				zap.String("reason", f.Reason),
			)
			res.Failure = f
			return res
		}
		res.Completed = append(res.Completed, StepResult{Index: i, Step: step.String(), Detail: detail})

		if step.Kind != StepCheck {
			if f := r.sleep(ctx); f != nil {
				f.Index, f.Step = i, step.String()
				res.Failure = f
				return res
			}
		}
	}
	logging.Info("Automation finished", zap.Int("steps", len(seq)))
	return res
}

func (r *Runner) runStep(ctx context.Context, step Step) (string, *Failure) {
	switch step.Kind {
	case StepWhile:
		return r.runWhile(ctx, step)
	case StepCheck:
		if step.Condition.Holds(r.Device) {
			detail, f := r.do(ctx, step.Then)
			return "then: " + detail, f
		}
		detail, f := r.do(ctx, step.Else)
		return "else: " + detail, f
	default:
		return r.do(ctx, step.Action)
	}
}

func (r *Runner) runWhile(ctx context.Context, step Step) (string, *Failure) {
	limit := r.MaxLoops
	if limit <= 0 {
		limit = DefaultMaxLoops
	}
	loops := 0
	for step.Condition.Holds(r.Device) {
		if loops == limit {
			return "", &Failure{
				Kind:   FailLoopLimit,
				Reason: fmt.Sprintf("%s still true after %d iterations", step.Condition, limit),
			}
		}
		if _, f := r.do(ctx, step.Action); f != nil {
			return "", f
		}
		if f := r.sleep(ctx); f != nil {
			return "", f
		}
		loops++
	}
	return fmt.Sprintf("%d iterations", loops), nil
}

// do executes a primitive
func (r *Runner) do(ctx context.Context, a Action) (string, *Failure) {
	if ctx.Err() != nil {
		return "", &Failure{Kind: FailCancelled, Reason: ctx.Err().Error()}
	}
	switch a.Kind {
	case ActionNone:
		return "no operation", nil
	case ActionConnect:
		res := r.Device.Connect(ctx)
		if res != session.Success {
			return "", &Failure{Kind: FailAction, Reason: res.Message(), Connect: &res}
		}
		return res.Message(), nil
	case ActionDisconnect:
		if r.Device.Disconnect(ctx) {
			return "disconnected", nil
		}
		return "disconnected without confirmation", nil
	case ActionTouch:
		r.Device.Touch(a.X, a.Y)
		return fmt.Sprintf("touched (%d, %d)", a.X, a.Y), nil
	case ActionTouchButton:
		if !r.Device.TouchButton(a.Button) {
			return "", &Failure{Kind: FailAction, Reason: fmt.Sprintf("button %d not on screen", a.Button)}
		}
		return fmt.Sprintf("touched button %d", a.Button), nil
	case ActionTouchText:
		if !r.Device.TouchText(a.Text) {
			return "", &Failure{Kind: FailAction, Reason: fmt.Sprintf("text %q not on screen", a.Text)}
		}
		return fmt.Sprintf("touched text %q", a.Text), nil
	default:
		return "", &Failure{Kind: FailAction, Reason: "unknown command"}
	}
}

func (r *Runner) sleep(ctx context.Context) *Failure {
	if r.StepDelay <= 0 {
		return nil
	}
	t := time.NewTimer(r.StepDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return &Failure{Kind: FailCancelled, Reason: ctx.Err().Error()}
	}
}
