package rng

import "testing"

func TestTaskSeedDeterministic(t *testing.T) {
	a := TaskSeed(42, 1700000000, 7)
	b := TaskSeed(42, 1700000000, 7)
	if a != b {
		t.Errorf("TaskSeed should be deterministic for identical inputs, got %d and %d", a, b)
	}
}

func TestTaskSeedVariesWithEachInput(t *testing.T) {
	base := TaskSeed(1, 1000, 1)
	if TaskSeed(2, 1000, 1) == base {
		t.Error("changing the master seed should change the derived seed")
	}
	if TaskSeed(1, 2000, 1) == base {
		t.Error("changing the timestamp should change the derived seed")
	}
	if TaskSeed(1, 1000, 2) == base {
		t.Error("changing the point ID should change the derived seed")
	}
}
