package target

import "context"

// Source resolves to a local file or directory path. Writers call Resolve
// once, right before the path is needed, so expensive sources (downloads,
// rendered templates) are only produced for targets that get written.
type Source interface {
	Resolve(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// Path is a Source that always resolves to the same local path.
type Path string

func (p Path) Resolve(context.Context) (string, error) {
	return string(p), nil
}
