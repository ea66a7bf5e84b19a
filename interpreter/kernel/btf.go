package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cilium/ebpf/btf"
)

// SymbolResolver answers whether the running kernel has a function.
type SymbolResolver interface {
	HasFunction(name string) (bool, error)
}

// btfResolver looks functions up in kernel BTF. The spec is loaded on
// first use and kept.
type btfResolver struct {
	path string

	once sync.Once
	spec *btf.Spec
	err  error
}

// NewBTFResolver returns a resolver backed by the kernel's BTF, or by
// the BTF file at path when path is not empty.
func NewBTFResolver(path string) SymbolResolver {
	return &btfResolver{path: path}
}

func (r *btfResolver) load() (*btf.Spec, error) {
	r.once.Do(func() {
		if r.path != "" {
			r.spec, r.err = btf.LoadSpec(r.path)
			if r.err != nil {
				r.err = fmt.Errorf("load BTF from %s: %w", r.path, r.err)
			}
			return
		}
		r.spec, r.err = btf.LoadKernelSpec()
		if r.err != nil {
			r.err = fmt.Errorf("load kernel BTF: %w", r.err)
		}
	})
	return r.spec, r.err
}

func (r *btfResolver) HasFunction(name string) (bool, error) {
	spec, err := r.load()
	if err != nil {
		return false, err
	}
	var fn *btf.Func
	err = spec.TypeByName(name, &fn)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, btf.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("look up %q in BTF: %w", name, err)
	}
}
