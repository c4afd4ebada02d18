package domain

import "testing"

func TestTaskStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskPending, TaskProcessing, true},
		{TaskPending, TaskFailed, true},
		{TaskPending, TaskCompleted, false},
		{TaskPending, TaskCancelled, false},
		{TaskProcessing, TaskCompleted, true},
		{TaskProcessing, TaskFailed, true},
		{TaskProcessing, TaskCancelled, true},
		{TaskProcessing, TaskPending, false},
		{TaskCompleted, TaskProcessing, false},
		{TaskFailed, TaskProcessing, false},
		{TaskCancelled, TaskProcessing, false},
		{TaskProcessing, TaskProcessing, true},
		{TaskCompleted, TaskCompleted, true},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	for _, s := range []TaskStatus{TaskCompleted, TaskFailed, TaskCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskPending, TaskProcessing} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStrategyForComplexity(t *testing.T) {
	cases := []struct {
		score int
		want  Strategy
	}{
		{1, StrategyFast},
		{2, StrategyBalanced},
		{3, StrategyBalanced},
		{4, StrategyQuality},
		{5, StrategyQuality},
	}
	for _, c := range cases {
		if got := StrategyForComplexity(c.score); got != c.want {
			t.Errorf("StrategyForComplexity(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestClampComplexity(t *testing.T) {
	cases := []struct{ in, want int }{
		{-2, 1}, {0, 1}, {1, 1}, {3, 3}, {5, 5}, {9, 5},
	}
	for _, c := range cases {
		if got := ClampComplexity(c.in); got != c.want {
			t.Errorf("ClampComplexity(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStrategyForStep(t *testing.T) {
	cases := []struct {
		step string
		want Strategy
		ok   bool
	}{
		{StepConvertFast, StrategyFast, true},
		{StepConvertBalanced, StrategyBalanced, true},
		{StepConvertQuality, StrategyQuality, true},
		{StepAnalyze, "", false},
		{"unknown", "", false},
	}
	for _, c := range cases {
		got, ok := StrategyForStep(c.step)
		if got != c.want || ok != c.ok {
			t.Errorf("StrategyForStep(%s) = (%s, %v), want (%s, %v)", c.step, got, ok, c.want, c.ok)
		}
	}
}
