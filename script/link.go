// Package script runs tengo hooks when an agent reaches a linked node.
//
// A link script defines
//
//	onLinkReached := func(engine, event) { ... }
//
// where event carries agent, x, y, z (the far end of the link) and node (the
// far end's index), and engine offers teleport(x, y, z), stop() and log(msg).
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/gridnav/common"
)

var ErrNilScript = errors.New("script: nil script")

const hookName = "onLinkReached"

const linkDispatchScript = `
if __run {
	onLinkReached(__engine, __event)
}
`

// Env is what a script may do to the agent that reached the link.
type Env interface {
	Teleport(p common.Vec3)
	Stop()
}

// Event is the script's view of a linked node being reached.
type Event struct {
	Agent       string
	Node        int32
	Destination common.Vec3
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// LinkScript is a compiled link hook. It is not safe for concurrent use.
type LinkScript struct {
	name     string
	compiled *tengo.Compiled
	logger   *slog.Logger
}

// Compile builds a link script from source. name labels log lines.
func Compile(name string, src []byte, opts ...Option) (*LinkScript, error) {
	o := options{logger: slog.Default().With(slog.String("component", "script"))}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	s := tengo.NewScript([]byte(string(src) + "\n" + linkDispatchScript))
	_ = s.Add("__run", false)
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__event", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}

	ls := &LinkScript{
		name:     name,
		compiled: compiled,
		logger:   o.logger.With(slog.String("script", name)),
	}
	// Run the top level once so globals are initialised and the hook exists.
	if err := ls.compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: init %s: %w", name, err)
	}
	if !compiled.IsDefined(hookName) {
		return nil, fmt.Errorf("script: %s does not define %s", name, hookName)
	}
	if _, ok := compiled.Get(hookName).Object().(*tengo.CompiledFunction); !ok {
		return nil, fmt.Errorf("script: %s: %s is not a function", name, hookName)
	}
	return ls, nil
}

// Load compiles the script at path.
func Load(path string, opts ...Option) (*LinkScript, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	return Compile(path, src, opts...)
}

func (s *LinkScript) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Run calls the hook for one event.
func (s *LinkScript) Run(env Env, ev Event) error {
	if s == nil || s.compiled == nil {
		return ErrNilScript
	}
	if err := s.compiled.Set("__run", true); err != nil {
		return err
	}
	if err := s.compiled.Set("__engine", s.engine(env, ev)); err != nil {
		return err
	}
	if err := s.compiled.Set("__event", eventObject(ev)); err != nil {
		return err
	}
	if err := s.compiled.Run(); err != nil {
		return fmt.Errorf("script: %s: %w", s.name, err)
	}
	return nil
}

func (s *LinkScript) engine(env Env, ev Event) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["teleport"] = &tengo.UserFunction{Name: "teleport", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if env == nil || len(args) < 3 {
			return tengo.FalseValue, nil
		}
		var p common.Vec3
		for i := 0; i < 3; i++ {
			v, ok := tengo.ToFloat64(args[i])
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "teleport", Expected: "float", Found: args[i].TypeName()}
			}
			p[i] = float32(v)
		}
		env.Teleport(p)
		return tengo.TrueValue, nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if env == nil {
			return tengo.FalseValue, nil
		}
		env.Stop()
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		s.logger.Info(strings.Join(parts, " "), slog.String("agent", ev.Agent))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func eventObject(ev Event) *tengo.ImmutableMap {
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"agent": &tengo.String{Value: ev.Agent},
		"node":  &tengo.Int{Value: int64(ev.Node)},
		"x":     &tengo.Float{Value: float64(ev.Destination[0])},
		"y":     &tengo.Float{Value: float64(ev.Destination[1])},
		"z":     &tengo.Float{Value: float64(ev.Destination[2])},
	}}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
