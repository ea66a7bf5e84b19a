package tracectl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl"
)

func TestExclusions_Excludes(t *testing.T) {
	x, err := tracectl.CompileExclusions([]string{"foo*", "sched_switch"})
	require.NoError(t, err)

	assert.True(t, x.Excludes("foo"))
	assert.True(t, x.Excludes("foobar"))
	assert.True(t, x.Excludes("sched_switch"))
	assert.False(t, x.Excludes("sched_wakeup"))
	assert.False(t, x.Excludes("barfoo"))
	assert.Equal(t, []string{"foo*", "sched_switch"}, x.Patterns())
}

func TestExclusions_EmptySetExcludesNothing(t *testing.T) {
	for _, patterns := range [][]string{nil, {}} {
		x, err := tracectl.CompileExclusions(patterns)
		require.NoError(t, err)
		assert.True(t, x.Empty())
		assert.False(t, x.Excludes("anything"))
		assert.NoError(t, x.CheckAgainst("sched_switch"))
	}
}

func TestExclusions_MalformedPatterns(t *testing.T) {
	for _, p := range []string{"", "!foo", "a\x00b", "app/*", "sched_[sw]*", "sched_?", `foo\*`} {
		_, err := tracectl.CompileExclusions([]string{p})
		assert.ErrorIs(t, err, tracectl.ErrInvalidExclusion, "pattern %q", p)
	}
}

func TestExclusions_CheckAgainst(t *testing.T) {
	tests := []struct {
		name       string
		event      string
		exclusions []string
		wantErr    bool
	}{
		{name: "narrowing a wildcard", event: "sched_*", exclusions: []string{"sched_switch"}},
		{name: "empty event name narrowed", event: "", exclusions: []string{"foo*"}},
		{name: "empty event name excluded by star", event: "", exclusions: []string{"*"}, wantErr: true},
		{name: "empty event name excluded by double star", event: "", exclusions: []string{"**"}, wantErr: true},
		{name: "literal event name", event: "sched_switch", exclusions: []string{"foo"}, wantErr: true},
		{name: "exclusion equals event", event: "sched_*", exclusions: []string{"sched_*"}, wantErr: true},
		{name: "exclusion covers event", event: "sched_*", exclusions: []string{"sch*"}, wantErr: true},
		{name: "star excludes star", event: "*", exclusions: []string{"*"}, wantErr: true},
		{name: "star narrowed", event: "*", exclusions: []string{"sched_*"}},
		{name: "double star excludes star", event: "*", exclusions: []string{"sched_*", "**"}, wantErr: true},
		{name: "double star covers wildcard", event: "sched_*", exclusions: []string{"**"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := tracectl.CompileExclusions(tt.exclusions)
			require.NoError(t, err)
			err = x.CheckAgainst(tt.event)
			if tt.wantErr {
				assert.ErrorIs(t, err, tracectl.ErrInvalidExclusion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
