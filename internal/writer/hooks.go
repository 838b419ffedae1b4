package writer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/pkg/target"
)

// Order numbers taken by hooks shipped with live-build.
var (
	liveReservedOrders   = []int{10, 50}
	normalReservedOrders = reservedNormalOrders()
)

func reservedNormalOrders() []int {
	orders := []int{1000, 1010, 1020}
	for n := 5000; n <= 5050; n += 10 {
		orders = append(orders, n)
	}
	for n := 8000; n <= 8110; n += 10 {
		orders = append(orders, n)
	}
	return append(orders, 9000, 9010, 9020)
}

// ReservedOrders returns the order numbers hooks of the given class never get.
func ReservedOrders(liveOnly bool) []int {
	if liveOnly {
		return append([]int(nil), liveReservedOrders...)
	}
	return append([]int(nil), normalReservedOrders...)
}

// orderAllocator hands out increasing order numbers starting at 1 and never
// returns a reserved one.
type orderAllocator struct {
	next     int
	reserved map[int]struct{}
}

func newOrderAllocator(reserved []int) *orderAllocator {
	a := &orderAllocator{next: 1, reserved: make(map[int]struct{}, len(reserved))}
	for _, n := range reserved {
		a.reserved[n] = struct{}{}
	}
	a.skipReserved()
	return a
}

func (a *orderAllocator) allocate() int {
	n := a.next
	a.next++
	a.skipReserved()
	return n
}

func (a *orderAllocator) skipReserved() {
	for {
		if _, ok := a.reserved[a.next]; !ok {
			return
		}
		a.next++
	}
}

// HookFileName formats the chroot hook filename for an order number.
func HookFileName(order int, name string) string {
	return fmt.Sprintf("%04d-%s.hook.chroot", order, name)
}

// HookPaths returns the paths, relative to the build directory, that a fresh
// HookWriter would give hooks. Sources are not resolved.
func HookPaths(hooks []target.Target) []string {
	live := newOrderAllocator(liveReservedOrders)
	normal := newOrderAllocator(normalReservedOrders)
	paths := make([]string, 0, len(hooks))
	for _, t := range hooks {
		hook, ok := t.(target.HookScript)
		if !ok {
			continue
		}
		if hook.LiveOnly {
			paths = append(paths, filepath.Join(lb.LiveHooksDir, HookFileName(live.allocate(), hook.Name)))
			continue
		}
		paths = append(paths, filepath.Join(lb.NormalHooksDir, HookFileName(normal.allocate(), hook.Name)))
	}
	return paths
}

// HookWriter copies hook scripts into the live or normal hooks directory
// with an order prefix. Live and normal hooks are numbered independently.
type HookWriter struct {
	liveDir   string
	normalDir string
	live      *orderAllocator
	normal    *orderAllocator
	logger    *logs.Logger
}

func NewHookWriter(buildDir string, logger *logs.Logger) *HookWriter {
	return &HookWriter{
		liveDir:   filepath.Join(buildDir, lb.LiveHooksDir),
		normalDir: filepath.Join(buildDir, lb.NormalHooksDir),
		live:      newOrderAllocator(liveReservedOrders),
		normal:    newOrderAllocator(normalReservedOrders),
		logger:    logger,
	}
}

func (w *HookWriter) Handle(ctx context.Context, targets []target.Target) error {
	w.logger.Info("writing hook scripts")
	for _, t := range targets {
		hook, ok := t.(target.HookScript)
		if !ok {
			return unexpectedTarget(target.KindHookScript, t)
		}
		if err := w.write(ctx, hook); err != nil {
			return err
		}
	}
	w.logger.Info("all hook scripts saved")
	return nil
}

func (w *HookWriter) write(ctx context.Context, hook target.HookScript) error {
	_, src, err := resolveSource(ctx, target.KindHookScript, hook.Script)
	if err != nil {
		return err
	}
	dir, alloc := w.normalDir, w.normal
	if hook.LiveOnly {
		dir, alloc = w.liveDir, w.live
	}
	dest := filepath.Join(dir, HookFileName(alloc.allocate(), hook.Name))
	w.logger.Info("copying hook script", "name", hook.Name, "live_only", hook.LiveOnly, "path", dest)
	if err := copyPath(src, dest); err != nil {
		return fmt.Errorf("copy hook %s: %w", hook.Name, err)
	}
	return nil
}
