package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"nusmods-scraper/internal/components/telemetry"
)

func TestFatalError(t *testing.T) {
	err := Fatalf("cors", "CS1010", "bad exam date %q", "31/31/2020")
	require.True(t, IsFatal(err))
	require.True(t, IsFatal(fmt.Errorf("wrapped: %w", err)))
	require.False(t, IsFatal(errors.New("plain")))
	require.Equal(t, `cors (CS1010): bad exam date "31/31/2020"`, err.Error())
}

func TestPluckSingle(t *testing.T) {
	value, err := PluckSingle("cors", "moduleCredit", []string{"4", "4"})
	require.NoError(t, err)
	require.Equal(t, "4", value)

	value, err = PluckSingle("cors", "moduleCredit", []string(nil))
	require.NoError(t, err)
	require.Equal(t, "", value)

	_, err = PluckSingle("cors", "moduleCredit", []string{"4", "5"})
	require.True(t, IsFatal(err))
	require.Contains(t, err.Error(), "moduleCredit should only contain single piece of data")
}

func TestForEach(t *testing.T) {
	t.Run("keeps order and drops failed items", func(t *testing.T) {
		rec := telemetry.NewRecorder()
		out, err := ForEach(context.Background(), rec, 3, []int{1, 2, 3, 4, 5}, func(ctx context.Context, i int) (int, error) {
			if i == 3 {
				return 0, errors.New("broken row")
			}
			return i * 10, nil
		})
		require.NoError(t, err)
		require.Equal(t, []int{10, 20, 40, 50}, out)
		require.True(t, rec.Has(telemetry.KindBroken, report_item_failed))
	})

	t.Run("respects the limit", func(t *testing.T) {
		var running, peak atomic.Int32
		var mu sync.Mutex
		items := make([]int, 20)
		_, err := ForEach(context.Background(), telemetry.NewRecorder(), 2, items, func(ctx context.Context, _ int) (int, error) {
			n := running.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			running.Add(-1)
			return 0, nil
		})
		require.NoError(t, err)
		require.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("fatal aborts", func(t *testing.T) {
		_, err := ForEach(context.Background(), telemetry.NewRecorder(), 1, []int{1, 2, 3}, func(ctx context.Context, i int) (int, error) {
			if i == 2 {
				return 0, Fatalf("test", "", "stop")
			}
			return i, nil
		})
		require.True(t, IsFatal(err))
	})
}

func TestGraph(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	step := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			ran = append(ran, name)
			mu.Unlock()
			return nil
		}
	}

	g := NewGraph()
	g.Add("collate", step("collate"), "consolidate")
	g.Add("consolidate", step("consolidate"), "bulletin", "cors", "exams")
	g.Add("bulletin", step("bulletin"))
	g.Add("cors", step("cors"))
	g.Add("exams", step("exams"))

	levels, err := g.Levels()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"bulletin", "cors", "exams"}, {"consolidate"}, {"collate"}}, levels)

	require.NoError(t, g.Run(context.Background()))
	require.Len(t, ran, 5)
	require.Equal(t, "collate", ran[4])

	t.Run("cycle", func(t *testing.T) {
		g := NewGraph()
		g.Add("root", step("root"))
		g.Add("a", step("a"), "root", "b")
		g.Add("b", step("b"), "a")
		g.Add("c", step("c"), "b")
		_, err := g.Levels()
		require.EqualError(t, err, "step dependencies contain a cycle through a, b, c")
	})

	t.Run("stops at failure", func(t *testing.T) {
		g := NewGraph()
		g.Add("a", func(context.Context) error { return errors.New("boom") })
		called := false
		g.Add("b", func(context.Context) error { called = true; return nil }, "a")
		err := g.Run(context.Background())
		require.ErrorContains(t, err, "a: boom")
		require.False(t, called)
	})
}
