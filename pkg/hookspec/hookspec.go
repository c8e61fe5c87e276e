package hookspec

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Names of the built-in hooks.
const (
	TaskStartName = "task_start"
	TaskStopName  = "task_stop"
)

// ParamFailed is the task_stop parameter reporting whether the task is failing.
const ParamFailed = "failed"

// Errors for hook declarations and calls.
var (
	// ErrInvalidSpec indicates a hook declaration failed validation.
	ErrInvalidSpec = errors.New("invalid hook specification")
	// ErrMissingArgument indicates a hook call omitted a declared parameter.
	ErrMissingArgument = errors.New("hook call is missing an argument")
	// ErrUnexpectedArgument indicates a hook call passed an undeclared parameter.
	ErrUnexpectedArgument = errors.New("hook call passed an unexpected argument")
	// ErrUnknownParameter indicates an implementation asked for a parameter the hook does not have.
	ErrUnknownParameter = errors.New("hook implementation declares an unknown parameter")
	// ErrArgumentType indicates an argument did not hold the expected type.
	ErrArgumentType = errors.New("hook argument has the wrong type")
)

// hookNamePattern restricts hook and parameter names to lower snake case.
var hookNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	err := v.RegisterValidation("hookname", func(fl validator.FieldLevel) bool {
		return hookNamePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}

	return v
}

// Spec describes a hook contract.
type Spec struct {
	// Name identifies the hook, e.g. "task_stop".
	Name string `validate:"required,hookname"`
	// Params lists the argument names every call must pass, in declaration order.
	Params []string `validate:"unique,dive,hookname"`
	// Doc is a human-readable description of when the hook fires.
	Doc string
}

// TaskStart is called when a task starts.
//
// Implementations may use it to register additional hook implementations
// scoped to the running task.
var TaskStart = Spec{
	Name: TaskStartName,
	Doc:  "Called when a task starts. May register further implementations for the task.",
}

// TaskStop is called when a task ends.
//
// failed is true if the task is failing, i.e. it requested a non-zero exit
// status, returned an error or panicked. Implementations registered by
// TaskStart should unregister themselves here.
var TaskStop = Spec{
	Name:   TaskStopName,
	Params: []string{ParamFailed},
	Doc:    "Called when a task ends. Receives whether the task failed.",
}

// Builtin returns the hooks every plugin manager declares.
func Builtin() []Spec {
	return []Spec{TaskStart, TaskStop}
}

// Validate reports whether the declaration is well formed.
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSpec, s.Name, err)
	}

	return nil
}

// HasParam reports whether the hook declares the named parameter.
func (s Spec) HasParam(name string) bool {
	return slices.Contains(s.Params, name)
}

// CheckImpl verifies that an implementation only consumes parameters the hook declares.
func (s Spec) CheckImpl(params []string) error {
	for _, p := range params {
		if !s.HasParam(p) {
			return fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParameter, s.Name, p)
		}
	}

	return nil
}

// CheckArgs verifies that a call passes exactly the declared parameters.
func (s Spec) CheckArgs(args Args) error {
	for _, p := range s.Params {
		if _, ok := args[p]; !ok {
			return fmt.Errorf("%w: %s requires %q", ErrMissingArgument, s.Name, p)
		}
	}

	for name := range args {
		if !s.HasParam(name) {
			return fmt.Errorf("%w: %s does not accept %q", ErrUnexpectedArgument, s.Name, name)
		}
	}

	return nil
}

// Bind returns the subset of args named in params.
// Parameters the implementation did not declare are omitted.
func (s Spec) Bind(args Args, params []string) Args {
	bound := make(Args, len(params))

	for _, p := range params {
		if v, ok := args[p]; ok {
			bound[p] = v
		}
	}

	return bound
}

// Args holds named hook call arguments.
type Args map[string]any

// Bool returns the named boolean argument.
func (a Args) Bool(name string) (bool, error) {
	raw, ok := a[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrMissingArgument, name)
	}

	v, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q is %T, not bool", ErrArgumentType, name, raw)
	}

	return v, nil
}

// Failed returns the task_stop failed argument.
func (a Args) Failed() (bool, error) {
	return a.Bool(ParamFailed)
}
