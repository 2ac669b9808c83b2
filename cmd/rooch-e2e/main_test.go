package main

import "testing"

func TestSelectScenarios(t *testing.T) {
	all, err := selectScenarios(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 5 {
		t.Errorf("default suite has %d scenarios", len(all))
	}

	picked, err := selectScenarios([]string{"states", "rpc_version"})
	if err != nil {
		t.Fatal(err)
	}
	if len(picked) != 2 || picked[0].Name != "states" || picked[1].Name != "rpc_version" {
		t.Errorf("picked = %+v", picked)
	}

	if _, err := selectScenarios([]string{"nope"}); err == nil {
		t.Error("unknown scenario should fail")
	}
}
