package tracectl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LoglevelType selects how an event's Loglevel is compared.
type LoglevelType int32

const (
	LoglevelAll    LoglevelType = 0
	LoglevelRange  LoglevelType = 1
	LoglevelSingle LoglevelType = 2
)

// String returns the string representation of the loglevel type.
func (t LoglevelType) String() string {
	switch t {
	case LoglevelAll:
		return "all"
	case LoglevelRange:
		return "range"
	case LoglevelSingle:
		return "single"
	default:
		return fmt.Sprintf("unknown(%d)", int32(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t LoglevelType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t LoglevelType) valid() bool {
	return t >= LoglevelAll && t <= LoglevelSingle
}

// Standard severity scale. Lower is more severe.
const (
	LoglevelEmerg         int32 = 0
	LoglevelAlert         int32 = 1
	LoglevelCrit          int32 = 2
	LoglevelErr           int32 = 3
	LoglevelWarning       int32 = 4
	LoglevelNotice        int32 = 5
	LoglevelInfo          int32 = 6
	LoglevelDebugSystem   int32 = 7
	LoglevelDebugProgram  int32 = 8
	LoglevelDebugProcess  int32 = 9
	LoglevelDebugModule   int32 = 10
	LoglevelDebugUnit     int32 = 11
	LoglevelDebugFunction int32 = 12
	LoglevelDebugLine     int32 = 13
	LoglevelDebug         int32 = 14
)

// java.util.logging scale. Higher is more severe.
const (
	LoglevelJULOff     int32 = math.MaxInt32
	LoglevelJULSevere  int32 = 1000
	LoglevelJULWarning int32 = 900
	LoglevelJULInfo    int32 = 800
	LoglevelJULConfig  int32 = 700
	LoglevelJULFine    int32 = 500
	LoglevelJULFiner   int32 = 400
	LoglevelJULFinest  int32 = 300
	LoglevelJULAll     int32 = math.MinInt32
)

// Scale is a severity scale together with its ordering direction.
type Scale int

const (
	// ScaleStandard orders levels from EMERG (0) to DEBUG (14).
	ScaleStandard Scale = iota
	// ScaleJUL orders levels from ALL (MinInt32) to OFF (MaxInt32).
	ScaleJUL
)

var standardNames = []string{
	"EMERG", "ALERT", "CRIT", "ERR", "WARNING", "NOTICE", "INFO",
	"DEBUG_SYSTEM", "DEBUG_PROGRAM", "DEBUG_PROCESS", "DEBUG_MODULE",
	"DEBUG_UNIT", "DEBUG_FUNCTION", "DEBUG_LINE", "DEBUG",
}

var julNames = map[string]int32{
	"OFF":     LoglevelJULOff,
	"SEVERE":  LoglevelJULSevere,
	"WARNING": LoglevelJULWarning,
	"INFO":    LoglevelJULInfo,
	"CONFIG":  LoglevelJULConfig,
	"FINE":    LoglevelJULFine,
	"FINER":   LoglevelJULFiner,
	"FINEST":  LoglevelJULFinest,
	"ALL":     LoglevelJULAll,
}

// AtLeastAsSevere reports whether level is as severe as, or more
// severe than, threshold on this scale.
func (s Scale) AtLeastAsSevere(level, threshold int32) bool {
	if s == ScaleJUL {
		return level >= threshold
	}
	return level <= threshold
}

// Match reports whether an event logged at level passes a filter of
// type t with value v.
func (s Scale) Match(t LoglevelType, v, level int32) bool {
	switch t {
	case LoglevelSingle:
		return level == v
	case LoglevelRange:
		return s.AtLeastAsSevere(level, v)
	default:
		return true
	}
}

// ParseLevel parses a level name (case-insensitive, with or without a
// "LOGLEVEL_" prefix) or a decimal value on this scale.
func (s Scale) ParseLevel(name string) (int32, error) {
	upper := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "LOGLEVEL_")
	if s == ScaleJUL {
		upper = strings.TrimPrefix(upper, "JUL_")
		if v, ok := julNames[upper]; ok {
			return v, nil
		}
	} else {
		for i, n := range standardNames {
			if n == upper {
				return int32(i), nil
			}
		}
	}
	v, err := strconv.ParseInt(name, 10, 32)
	if err != nil {
		return 0, Errorf(KindInvalidArgument, "unknown loglevel %q", name)
	}
	return int32(v), nil
}

// LevelName returns the symbolic name for v, or its decimal form when
// v has no name on this scale.
func (s Scale) LevelName(v int32) string {
	if s == ScaleJUL {
		for n, lv := range julNames {
			if lv == v {
				return n
			}
		}
	} else if v >= 0 && int(v) < len(standardNames) {
		return standardNames[v]
	}
	return strconv.FormatInt(int64(v), 10)
}
