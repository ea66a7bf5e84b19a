package tracectl

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// PerfCounter is a named perf counter the command line understands.
type PerfCounter struct {
	Name   string `json:"name"`
	Type   uint32 `json:"type"`
	Config uint64 `json:"config"`
}

func hwCache(id, op, result uint64) uint64 {
	return id | op<<8 | result<<16
}

var perfCounters = []PerfCounter{
	{"cpu-cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	{"cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	{"stalled-cycles-frontend", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_STALLED_CYCLES_FRONTEND},
	{"idle-cycles-frontend", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_STALLED_CYCLES_FRONTEND},
	{"stalled-cycles-backend", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_STALLED_CYCLES_BACKEND},
	{"idle-cycles-backend", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_STALLED_CYCLES_BACKEND},
	{"instructions", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	{"cache-references", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES},
	{"cache-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
	{"branch-instructions", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
	{"branches", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
	{"branch-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
	{"bus-cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BUS_CYCLES},

	{"L1-dcache-loads", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
	{"L1-dcache-load-misses", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	{"L1-dcache-stores", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_WRITE, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
	{"L1-dcache-store-misses", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_WRITE, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	{"L1-icache-loads", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_L1I, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
	{"L1-icache-load-misses", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_L1I, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	{"LLC-loads", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
	{"LLC-load-misses", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	{"dTLB-loads", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_DTLB, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
	{"dTLB-load-misses", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_DTLB, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
	{"branch-loads", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_BPU, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
	{"branch-load-misses", unix.PERF_TYPE_HW_CACHE, hwCache(unix.PERF_COUNT_HW_CACHE_BPU, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},

	{"cpu-clock", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_CLOCK},
	{"task-clock", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_TASK_CLOCK},
	{"page-fault", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS},
	{"faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS},
	{"major-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ},
	{"minor-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS_MIN},
	{"context-switches", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CONTEXT_SWITCHES},
	{"cs", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CONTEXT_SWITCHES},
	{"cpu-migrations", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_MIGRATIONS},
	{"migrations", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_MIGRATIONS},
	{"alignment-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_ALIGNMENT_FAULTS},
	{"emulation-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_EMULATION_FAULTS},
}

// PerfCounters returns the named counters, in catalog order.
func PerfCounters() []PerfCounter {
	return slices.Clone(perfCounters)
}

// LookupPerfCounter finds a counter by name.
func LookupPerfCounter(name string) (PerfCounter, bool) {
	i := slices.IndexFunc(perfCounters, func(c PerfCounter) bool { return c.Name == name })
	if i < 0 {
		return PerfCounter{}, false
	}
	return perfCounters[i], true
}

// ParseContext parses a context as written on the command line:
// "vpid", "perf:cpu:cache-misses", "perf:thread:instructions",
// "perf:cpu:raw:r0013c:x86unhalted" or the legacy "perf:cycles".
func ParseContext(s string) (Context, error) {
	if !strings.HasPrefix(s, "perf:") {
		t, ok := ParseContextType(s)
		if !ok || t.IsPerf() {
			return Context{}, Errorf(KindInvalidArgument, "unknown context %q", s)
		}
		return Context{Type: t}, nil
	}

	rest := strings.TrimPrefix(s, "perf:")
	ctxType, prefix := ContextPerfCounter, "perf_"
	switch {
	case strings.HasPrefix(rest, "cpu:"):
		ctxType, prefix, rest = ContextPerfCPUCounter, "perf_cpu_", strings.TrimPrefix(rest, "cpu:")
	case strings.HasPrefix(rest, "thread:"):
		ctxType, prefix, rest = ContextPerfThreadCounter, "perf_thread_", strings.TrimPrefix(rest, "thread:")
	}

	if raw, ok := strings.CutPrefix(rest, "raw:"); ok {
		code, name, ok := strings.Cut(raw, ":")
		if !ok || name == "" || !strings.HasPrefix(code, "r") {
			return Context{}, Errorf(KindInvalidArgument, "raw perf counter %q needs r<hex>:<name>", s)
		}
		config, err := strconv.ParseUint(code[1:], 16, 64)
		if err != nil {
			return Context{}, Errorf(KindInvalidArgument, "raw perf counter %q: bad code %q", s, code)
		}
		return Context{Type: ctxType, Perf: &PerfCounterAttr{
			Type:   unix.PERF_TYPE_RAW,
			Config: config,
			Name:   prefix + "raw_" + code + "_" + name,
		}}, nil
	}

	c, ok := LookupPerfCounter(rest)
	if !ok {
		return Context{}, Errorf(KindInvalidArgument, "unknown perf counter %q", rest)
	}
	return Context{Type: ctxType, Perf: &PerfCounterAttr{
		Type:   c.Type,
		Config: c.Config,
		Name:   prefix + strings.ReplaceAll(c.Name, "-", "_"),
	}}, nil
}
