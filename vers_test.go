package vers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/TechnologyAdvice/Vers/verserrors"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callLog records converter invocations in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// stamp returns a converter that logs its name and sets the version field in place.
func stamp(log *callLog, name string, to Version) ConverterFunc {
	return func(_ context.Context, rec any) (any, error) {
		log.add(name)
		rec.(map[string]any)["version"] = to.Value()
		return nil, nil
	}
}

func newEngine(t *testing.T, opts ...Option) *Vers {
	t.Helper()
	v, err := New(opts...)
	require.NoError(t, err)
	return v
}

func mustAdd(t *testing.T, v *Vers, from, to Version, forward, back ConverterFunc) {
	t.Helper()
	require.NoError(t, v.AddConverter(from, to, forward, back))
}

// chainEngine registers 1->2->3->4 one-way.
func chainEngine(t *testing.T, log *callLog, opts ...Option) *Vers {
	t.Helper()
	v := newEngine(t, opts...)
	for i := 1; i < 4; i++ {
		from, to := Num(float64(i)), Num(float64(i+1))
		mustAdd(t, v, from, to, stamp(log, fmt.Sprintf("%d->%d", i, i+1), to), nil)
	}
	return v
}

func TestFromTo_Identity(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log)

	type payload struct{ Name string }
	rec := &payload{Name: "unchanged"}

	out, err := v.FromTo(context.Background(), Num(3), Num(3), rec)
	require.NoError(t, err)
	assert.Same(t, rec, out)
	assert.Empty(t, log.list())

	// Versions the graph has never seen are still identical to themselves.
	out, err = v.FromTo(context.Background(), Str("draft"), Str("draft"), rec)
	require.NoError(t, err)
	assert.Same(t, rec, out)
}

func TestFromTo_RoundTrip(t *testing.T) {
	v := newEngine(t)
	mustAdd(t, v, Num(1), Num(2),
		func(_ context.Context, rec any) (any, error) {
			m := rec.(map[string]any)
			return map[string]any{"version": 2, "fullName": m["name"]}, nil
		},
		func(_ context.Context, rec any) (any, error) {
			m := rec.(map[string]any)
			return map[string]any{"version": 1, "name": m["fullName"]}, nil
		})

	original := map[string]any{"version": 1, "name": "Ada"}
	ctx := context.Background()

	up, err := v.FromTo(ctx, Num(1), Num(2), original)
	require.NoError(t, err)
	down, err := v.FromTo(ctx, Num(2), Num(1), up)
	require.NoError(t, err)

	if diff := cmp.Diff(original, down); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTo_PrefersShortcut(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log)
	mustAdd(t, v, Num(1), Num(4), stamp(log, "1->4", Num(4)), nil)

	rec := map[string]any{"version": 1}
	out, err := v.FromTo(context.Background(), Num(1), Num(4), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"1->4"}, log.list())
	assert.Equal(t, 4, out.(map[string]any)["version"])
}

func TestFromTo_MixedDirection(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log)
	mustAdd(t, v, Num(5), Num(3), stamp(log, "5->3", Num(3)), stamp(log, "3->5", Num(5)))

	out, err := v.FromTo(context.Background(), Num(5), Num(4), map[string]any{"version": 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"5->3", "3->4"}, log.list())
	assert.Equal(t, 4, out.(map[string]any)["version"])
}

func TestFromTo_Unreachable(t *testing.T) {
	log := &callLog{}
	v := newEngine(t)
	mustAdd(t, v, Num(1), Num(2), stamp(log, "1->2", Num(2)), nil)

	out, err := v.FromTo(context.Background(), Num(2), Num(1), map[string]any{"version": 2})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, verserrors.ErrPathNotFound))
	assert.Empty(t, log.list())
}

func TestFromTo_MutatingConverters(t *testing.T) {
	v := newEngine(t)
	mustAdd(t, v, Num(1), Num(2), func(_ context.Context, rec any) (any, error) {
		m := rec.(map[string]any)
		m["history"] = append(m["history"].([]string), "a")
		return nil, nil
	}, nil)
	mustAdd(t, v, Num(2), Num(3), func(_ context.Context, rec any) (any, error) {
		m := rec.(map[string]any)
		m["history"] = append(m["history"].([]string), "b")
		return nil, nil
	}, nil)

	rec := map[string]any{"history": []string{}}
	res, err := v.Convert(context.Background(), Num(1), Num(3), rec)
	require.NoError(t, err, spew.Sdump(rec))

	out := res.Record.(map[string]any)
	assert.Equal(t, []string{"a", "b"}, out["history"])
	// Same map: nothing was copied.
	out["marker"] = true
	assert.Equal(t, true, rec["marker"])

	require.Len(t, res.Steps, 2)
	assert.True(t, res.Steps[0].Mutated)
	assert.True(t, res.Steps[1].Mutated)
}

func TestFromTo_ReturnedRecordFeedsNextStep(t *testing.T) {
	v := newEngine(t)
	mustAdd(t, v, Str("a"), Str("b"), func(_ context.Context, rec any) (any, error) {
		return rec.(int) * 10, nil
	}, nil)
	mustAdd(t, v, Str("b"), Str("c"), func(_ context.Context, rec any) (any, error) {
		return rec.(int) + 1, nil
	}, nil)

	res, err := v.Convert(context.Background(), Str("a"), Str("c"), 4)
	require.NoError(t, err)
	assert.Equal(t, 41, res.Record)
	assert.False(t, res.Steps[0].Mutated)
	assert.Equal(t, Str("a"), res.From)
	assert.Equal(t, Str("c"), res.To)
}

func TestFromTo_StepsRunSequentially(t *testing.T) {
	var mu sync.Mutex
	running := 0
	maxRunning := 0
	slow := func(_ context.Context, rec any) (any, error) {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return rec.(int) + 1, nil
	}

	v := newEngine(t)
	for i := 1; i < 5; i++ {
		mustAdd(t, v, Num(float64(i)), Num(float64(i+1)), slow, nil)
	}

	out, err := v.FromTo(context.Background(), Num(1), Num(5), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, out)
	assert.Equal(t, 1, maxRunning)
}

func TestFromTo_StepFailureStopsPath(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")

	v := newEngine(t)
	mustAdd(t, v, Num(1), Num(2), stamp(log, "1->2", Num(2)), nil)
	mustAdd(t, v, Num(2), Num(3), func(_ context.Context, _ any) (any, error) {
		log.add("2->3")
		return nil, boom
	}, nil)
	mustAdd(t, v, Num(3), Num(4), stamp(log, "3->4", Num(4)), nil)

	out, err := v.FromTo(context.Background(), Num(1), Num(4), map[string]any{})
	assert.Nil(t, out, "no partial result on failure")
	assert.True(t, errors.Is(err, verserrors.ErrConversionStep))
	assert.True(t, errors.Is(err, boom))

	var stepErr *verserrors.ConversionStepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 1, stepErr.Step)
	assert.Equal(t, Num(2), stepErr.From)
	assert.Equal(t, Num(3), stepErr.To)
	assert.Equal(t, []string{"1->2", "2->3"}, log.list())
}

func TestFromTo_CancelledContextStopsBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := &callLog{}

	v := newEngine(t)
	mustAdd(t, v, Num(1), Num(2), func(_ context.Context, rec any) (any, error) {
		log.add("1->2")
		cancel()
		return nil, nil
	}, nil)
	mustAdd(t, v, Num(2), Num(3), stamp(log, "2->3", Num(3)), nil)

	_, err := v.FromTo(ctx, Num(1), Num(3), map[string]any{})
	assert.True(t, errors.Is(err, verserrors.ErrConversionStep))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"1->2"}, log.list())
}

func TestTo_DetectsVersion(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log)

	tests := []struct {
		name  string
		rec   map[string]any
		calls []string
	}{
		{"version field", map[string]any{"version": 2}, []string{"2->3", "3->4"}},
		{"float version from JSON", map[string]any{"version": 3.0}, []string{"3->4"}},
		{"missing field defaults to 1", map[string]any{}, []string{"1->2", "2->3", "3->4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.calls = nil
			out, err := v.To(context.Background(), Num(4), tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.calls, log.list())
			assert.Equal(t, 4, out.(map[string]any)["version"])
		})
	}
}

func TestTo_DetectionFailure(t *testing.T) {
	t.Run("bad field value", func(t *testing.T) {
		v := chainEngine(t, &callLog{})
		_, err := v.To(context.Background(), Num(4), map[string]any{"version": []int{1}})
		assert.True(t, errors.Is(err, verserrors.ErrVersionDetection))
	})

	t.Run("custom detector error is wrapped", func(t *testing.T) {
		lookup := errors.New("lookup failed")
		v := chainEngine(t, &callLog{}, WithVersionDetector(VersionDetectorFunc(
			func(context.Context, any) (Version, error) { return Version{}, lookup },
		)))
		_, err := v.To(context.Background(), Num(4), map[string]any{})
		assert.True(t, errors.Is(err, verserrors.ErrVersionDetection))
		assert.True(t, errors.Is(err, lookup))
	})

	t.Run("unset version from detector", func(t *testing.T) {
		v := chainEngine(t, &callLog{}, WithVersionDetector(VersionDetectorFunc(
			func(context.Context, any) (Version, error) { return Version{}, nil },
		)))
		_, err := v.To(context.Background(), Num(4), map[string]any{})
		assert.True(t, errors.Is(err, verserrors.ErrVersionDetection))
	})
}

func TestToLatest_InfersNumericMaximum(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log)
	mustAdd(t, v, Num(4), Num(5), stamp(log, "4->5", Num(5)), nil)

	latest, err := v.Latest()
	require.NoError(t, err)
	assert.Equal(t, Num(5), latest)

	out, err := v.ToLatest(context.Background(), map[string]any{"version": 1})
	require.NoError(t, err)
	assert.Equal(t, 5, out.(map[string]any)["version"])
	assert.Equal(t, []string{"1->2", "2->3", "3->4", "4->5"}, log.list())
}

func TestToLatest_FixedLatest(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log, WithLatest(Num(3)))

	out, err := v.ToLatest(context.Background(), map[string]any{"version": 1})
	require.NoError(t, err)
	assert.Equal(t, 3, out.(map[string]any)["version"])
}

func TestToLatest_NonNumericWithoutFixedLatest(t *testing.T) {
	log := &callLog{}
	v := newEngine(t)
	mustAdd(t, v, Str("alpha"), Str("beta"), stamp(log, "alpha->beta", Str("beta")), nil)

	_, err := v.ToLatest(context.Background(), map[string]any{"version": "alpha"})
	assert.True(t, errors.Is(err, verserrors.ErrConfig))
	assert.Empty(t, log.list(), "no converter may run with an unknown latest")

	_, err = v.FromToLatest(context.Background(), Str("alpha"), map[string]any{})
	assert.True(t, errors.Is(err, verserrors.ErrConfig))
}

func TestFromToLatest(t *testing.T) {
	log := &callLog{}
	v := chainEngine(t, log)

	// The record's own field is ignored in favour of the caller's from.
	out, err := v.FromToLatest(context.Background(), Num(3), map[string]any{"version": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"3->4"}, log.list())
	assert.Equal(t, 4, out.(map[string]any)["version"])
}

func TestAddConverter_Validation(t *testing.T) {
	v := newEngine(t)
	noop := func(context.Context, any) (any, error) { return nil, nil }

	tests := []struct {
		name     string
		from, to Version
		forward  ConverterFunc
		option   string
	}{
		{"unset from", Version{}, Num(2), noop, "from"},
		{"unset to", Num(1), Version{}, noop, "to"},
		{"nil forward", Num(1), Num(2), nil, "forward"},
		{"NaN from", Num(math.NaN()), Num(2), noop, "from"},
		{"infinite to", Num(1), Num(math.Inf(1)), noop, "to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.AddConverter(tt.from, tt.to, tt.forward, nil)
			var cfgErr *verserrors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}
	assert.Empty(t, v.Versions())
}

func TestAddConverter_LastRegistrationWins(t *testing.T) {
	log := &callLog{}
	v := newEngine(t)
	mustAdd(t, v, Num(1), Num(2), stamp(log, "old", Num(2)), stamp(log, "old-back", Num(1)))
	mustAdd(t, v, Num(1), Num(2), stamp(log, "new", Num(2)), nil)

	ctx := context.Background()
	_, err := v.FromTo(ctx, Num(1), Num(2), map[string]any{})
	require.NoError(t, err)
	_, err = v.FromTo(ctx, Num(2), Num(1), map[string]any{})
	require.NoError(t, err)

	// The back converter from the first registration is kept.
	assert.Equal(t, []string{"new", "old-back"}, log.list())
	assert.Len(t, v.Edges(), 2)
}

func TestResolveVersion(t *testing.T) {
	noop := func(context.Context, any) (any, error) { return nil, nil }
	v := newEngine(t)
	mustAdd(t, v, Num(1), Str("2"), noop, nil)
	mustAdd(t, v, Str("2"), Str("beta"), noop, nil)

	tests := []struct {
		in   string
		want Version
	}{
		{"1", Num(1)},
		{"2", Str("2")},
		{`"2"`, Str("2")},
		{"beta", Str("beta")},
		{"7", Num(7)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ResolveVersion(tt.in))
		})
	}

	path, err := v.Plan(v.ResolveVersion("1"), v.ResolveVersion("2"))
	require.NoError(t, err)
	assert.Equal(t, 1, path.Len())
}

func TestResolveVersion_PrefersNumeric(t *testing.T) {
	noop := func(context.Context, any) (any, error) { return nil, nil }
	v := newEngine(t)
	mustAdd(t, v, Num(2), Str("2"), noop, nil)

	assert.Equal(t, Num(2), v.ResolveVersion("2"))
	assert.Equal(t, Str("2"), v.ResolveVersion("'2'"))
}

func TestPlan(t *testing.T) {
	v := chainEngine(t, &callLog{})

	path, err := v.Plan(Num(1), Num(3))
	require.NoError(t, err)
	assert.Equal(t, "1 -> 2 -> 3", path.String())
	assert.Equal(t, []Version{Num(1), Num(2), Num(3), Num(4)}, v.Versions())
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil detector", WithVersionDetector(nil)},
		{"empty field", WithVersionField("")},
		{"unset default", WithDefaultVersion(Version{})},
		{"unset latest", WithLatest(Version{})},
		{"NaN default", WithDefaultVersion(Num(math.NaN()))},
		{"infinite latest", WithLatest(Num(math.Inf(1)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.True(t, errors.Is(err, verserrors.ErrConfig))
		})
	}
}

func TestNew_VersionFieldAndDefault(t *testing.T) {
	log := &callLog{}
	v := newEngine(t, WithVersionField("schema"), WithDefaultVersion(Str("v1")))
	mustAdd(t, v, Str("v1"), Str("v2"), func(_ context.Context, rec any) (any, error) {
		log.add("v1->v2")
		rec.(map[string]any)["schema"] = "v2"
		return nil, nil
	}, nil)

	ver, err := v.DetectVersion(context.Background(), map[string]any{"schema": "v2"})
	require.NoError(t, err)
	assert.Equal(t, Str("v2"), ver)

	out, err := v.To(context.Background(), Str("v2"), map[string]any{"version": 9})
	require.NoError(t, err)
	assert.Equal(t, "v2", out.(map[string]any)["schema"])
	assert.Equal(t, []string{"v1->v2"}, log.list())
}
