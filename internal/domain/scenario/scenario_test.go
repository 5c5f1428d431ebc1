package scenario_test

import (
	"testing"

	"github.com/sophialabs/stubhttp/internal/domain/scenario"
)

func TestSortByPriority(t *testing.T) {
	scenarios := []*scenario.Scenario{
		{ID: "low-1", Priority: 1},
		{ID: "high", Priority: 10},
		{ID: "low-2", Priority: 1},
		{ID: "none"},
	}

	scenario.SortByPriority(scenarios)

	want := []string{"high", "low-1", "low-2", "none"}
	for i, id := range want {
		if scenarios[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, scenarios[i].ID)
		}
	}
}
