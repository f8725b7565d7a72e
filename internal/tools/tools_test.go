package tools

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestPickWeighted_TiedAtMax(t *testing.T) {
	candidates := []string{"Tool A", "Tool B", "Tool C"}
	counts := map[string]int{"Tool A": 3, "Tool B": 3, "Tool C": 1}
	rng := rand.New(rand.NewSource(1))

	picked := make(map[string]int)
	for i := 0; i < 200; i++ {
		picked[PickWeighted(candidates, counts, rng)]++
	}

	if picked["Tool C"] != 0 {
		t.Errorf("Tool C must never be picked, got %d picks", picked["Tool C"])
	}
	if picked["Tool A"] == 0 || picked["Tool B"] == 0 {
		t.Errorf("both tied tools should be picked with nonzero probability: %v", picked)
	}
}

func TestPickWeighted_AllZeroOnFirstRun(t *testing.T) {
	candidates := []string{"a", "b", "c"}
	rng := rand.New(rand.NewSource(7))

	picked := make(map[string]int)
	for i := 0; i < 300; i++ {
		picked[PickWeighted(candidates, map[string]int{}, rng)]++
	}
	for _, name := range candidates {
		if picked[name] == 0 {
			t.Errorf("tool %q never picked on empty history: %v", name, picked)
		}
	}
}

func TestPickWeighted_Empty(t *testing.T) {
	if got := PickWeighted(nil, nil, rand.New(rand.NewSource(1))); got != "" {
		t.Errorf("pick from empty roster = %q", got)
	}
}

func TestMerge_DeduplicatesPreservingOrder(t *testing.T) {
	got := Merge([]string{"A", "B"}, []string{"B", "C", "", "A"})
	if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("merged = %v", got)
	}
}

func TestParseCustom(t *testing.T) {
	if got := ParseCustom(`["My Tool","Other"]`); !reflect.DeepEqual(got, []string{"My Tool", "Other"}) {
		t.Errorf("parsed = %v", got)
	}
	if got := ParseCustom("not json"); got != nil {
		t.Errorf("malformed input should yield nil, got %v", got)
	}
	if got := ParseCustom(""); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
}
