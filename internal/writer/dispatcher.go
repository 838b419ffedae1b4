package writer

import (
	"context"
	"fmt"

	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/pkg/target"
)

// Handler writes every collected target of one kind.
type Handler interface {
	Handle(ctx context.Context, targets []target.Target) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, targets []target.Target) error

func (f HandlerFunc) Handle(ctx context.Context, targets []target.Target) error {
	return f(ctx, targets)
}

// UnrecognizedTargetError reports a target whose kind has no handler.
type UnrecognizedTargetError struct {
	// Index is the position in the flattened target list.
	Index  int
	Target target.Target
}

func (e *UnrecognizedTargetError) Error() string {
	if e.Target == nil {
		return fmt.Sprintf("unknown target at index %d: nil", e.Index)
	}
	return fmt.Sprintf("unknown target type at index %d: %T (kind %q)", e.Index, e.Target, e.Target.Kind())
}

// InvalidTargetError reports a recognized target with a field value no
// writer accepts.
type InvalidTargetError struct {
	Index  int
	Target target.Target
	Err    error
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid %s target at index %d: %v", e.Target.Kind(), e.Index, e.Err)
}

func (e *InvalidTargetError) Unwrap() error {
	return e.Err
}

type validator interface {
	Validate() error
}

// Dispatcher groups targets by kind and hands each group to its handler.
type Dispatcher struct {
	handlers map[target.Kind]Handler
	order    []target.Kind
	logger   *logs.Logger
}

func NewDispatcher(logger *logs.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: map[target.Kind]Handler{},
		logger:   logger,
	}
}

// Register sets the handler for kind. Handlers run in registration order.
func (d *Dispatcher) Register(kind target.Kind, h Handler) {
	if _, ok := d.handlers[kind]; !ok {
		d.order = append(d.order, kind)
	}
	d.handlers[kind] = h
}

// Kinds returns the registered kinds in handler order.
func (d *Dispatcher) Kinds() []target.Kind {
	return append([]target.Kind(nil), d.order...)
}

// Collect flattens targets and partitions them by kind, keeping arrival
// order within a kind. Kinds come from the concrete target type. It stops at
// the first target without a handler or with an invalid field.
func (d *Dispatcher) Collect(targets []target.Target) (map[target.Kind][]target.Target, error) {
	collected := make(map[target.Kind][]target.Target, len(d.order))
	for _, kind := range d.order {
		collected[kind] = []target.Target{}
	}
	index := 0
	if err := d.collect(targets, collected, &index); err != nil {
		return nil, err
	}
	return collected, nil
}

func (d *Dispatcher) collect(targets []target.Target, collected map[target.Kind][]target.Target, index *int) error {
	for _, t := range targets {
		if group, ok := t.(target.Group); ok {
			if err := d.collect(group, collected, index); err != nil {
				return err
			}
			continue
		}
		if t == nil {
			return &UnrecognizedTargetError{Index: *index}
		}
		kind, ok := target.KindOf(t)
		if !ok {
			return &UnrecognizedTargetError{Index: *index, Target: t}
		}
		if _, ok := d.handlers[kind]; !ok {
			return &UnrecognizedTargetError{Index: *index, Target: t}
		}
		if v, ok := t.(validator); ok {
			if err := v.Validate(); err != nil {
				return &InvalidTargetError{Index: *index, Target: t, Err: err}
			}
		}
		collected[kind] = append(collected[kind], t)
		*index++
	}
	return nil
}

// Dispatch collects every target first, then calls each registered handler
// once. Nothing is written when any target is unrecognized or invalid. Writes of
// earlier handlers are kept when a later one fails.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []target.Target) error {
	d.logger.Info("collecting targets")
	collected, err := d.Collect(targets)
	if err != nil {
		return err
	}
	d.logger.Info("writing collected targets")
	for _, kind := range d.order {
		group := collected[kind]
		d.logger.Debug("writing targets", "kind", kind, "count", len(group))
		if err := d.handlers[kind].Handle(ctx, group); err != nil {
			return fmt.Errorf("write %s targets: %w", kind, err)
		}
	}
	d.logger.Info("all collected targets saved")
	return nil
}
