package permissions_test

import (
	"reflect"
	"testing"

	"github.com/Gen7Fuel/thehub-sub000/internal/permissions"
)

func template() []permissions.Node {
	return []permissions.Node{
		{Name: "safesheet", Children: []permissions.Node{
			{Name: "entries"},
		}},
		{Name: "payables"},
		{Name: "files"},
	}
}

func TestMergeEmptyTargetIsAllDenied(t *testing.T) {
	got := permissions.Merge(template(), nil)

	if len(got) != 3 {
		t.Fatalf("got %d nodes, want 3", len(got))
	}
	for _, n := range got {
		if n.Value {
			t.Errorf("node %s granted, want denied", n.Name)
		}
	}
	if len(got[0].Children) != 1 || got[0].Children[0].Value {
		t.Error("child node should exist and be denied")
	}
}

func TestMergeKeepsTargetValues(t *testing.T) {
	target := []permissions.Node{
		{Name: "safesheet", Value: true, Children: []permissions.Node{
			{Name: "entries", Value: true},
		}},
		{Name: "payables", Value: false},
	}

	got := permissions.Merge(template(), target)

	if !got[0].Value || !got[0].Children[0].Value {
		t.Error("safesheet subtree should be granted")
	}
	if got[1].Value {
		t.Error("payables should stay denied")
	}
	if got[2].Value {
		t.Error("files absent from target, should default to denied")
	}
}

func TestMergeDropsNodesOutsideTemplate(t *testing.T) {
	target := []permissions.Node{
		{Name: "retired_feature", Value: true},
		{Name: "payables", Value: true},
	}

	got := permissions.Merge(template(), target)

	for _, n := range got {
		if n.Name == "retired_feature" {
			t.Fatal("node outside the template survived the merge")
		}
	}
}

func TestMergeFirstMatchWins(t *testing.T) {
	target := []permissions.Node{
		{Name: "payables", Value: true},
		{Name: "payables", Value: false},
	}

	got := permissions.Merge(template(), target)
	if !got[1].Value {
		t.Error("first matching sibling should win")
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	tpl := template()
	target := []permissions.Node{{Name: "payables", Value: true}}

	tplCopy := template()
	permissions.Merge(tpl, target)

	if !reflect.DeepEqual(tpl, tplCopy) {
		t.Error("template was mutated")
	}
}

func TestOverridesOmitsMatchingDenied(t *testing.T) {
	role := permissions.Merge(template(), nil) // all denied
	resolved := permissions.Merge(template(), []permissions.Node{
		{Name: "payables", Value: true},
	})

	diff := permissions.Overrides(role, resolved)

	if len(diff) != 1 || diff[0].Name != "payables" || !diff[0].Value {
		t.Fatalf("diff = %+v, want single granted payables node", diff)
	}
}

func TestOverridesRecordsRevokedDefault(t *testing.T) {
	role := permissions.Merge(template(), []permissions.Node{
		{Name: "payables", Value: true},
	})
	resolved := permissions.Merge(template(), nil) // admin revoked it

	diff := permissions.Overrides(role, resolved)

	if len(diff) != 1 || diff[0].Name != "payables" || diff[0].Value {
		t.Fatalf("diff = %+v, want single denied payables node", diff)
	}
}

func TestOverridesRoundTripsThroughMerge(t *testing.T) {
	role := permissions.Merge(template(), []permissions.Node{
		{Name: "safesheet", Value: true, Children: []permissions.Node{
			{Name: "entries", Value: true},
		}},
		{Name: "files", Value: true},
	})
	resolved := permissions.Merge(template(), []permissions.Node{
		{Name: "safesheet", Value: true}, // entries revoked
		{Name: "payables", Value: true},  // granted beyond the role
	})

	diff := permissions.Overrides(role, resolved)
	rebuilt := permissions.Merge(role, diff)

	if !reflect.DeepEqual(rebuilt, resolved) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", rebuilt, resolved)
	}
}

func TestAllowed(t *testing.T) {
	tree := permissions.Merge(template(), []permissions.Node{
		{Name: "safesheet", Value: true, Children: []permissions.Node{
			{Name: "entries", Value: true},
		}},
	})

	if !permissions.Allowed(tree, "safesheet") {
		t.Error("safesheet should be allowed")
	}
	if !permissions.Allowed(tree, "safesheet", "entries") {
		t.Error("safesheet/entries should be allowed")
	}
	if permissions.Allowed(tree, "payables") {
		t.Error("payables should be denied")
	}
	if permissions.Allowed(tree, "missing") {
		t.Error("unknown node should be denied")
	}
	if permissions.Allowed(tree) {
		t.Error("empty path should be denied")
	}
}

func TestAllowedRequiresEveryAncestor(t *testing.T) {
	tree := []permissions.Node{
		{Name: "safesheet", Value: false, Children: []permissions.Node{
			{Name: "entries", Value: true},
		}},
	}

	if permissions.Allowed(tree, "safesheet", "entries") {
		t.Error("granted child under a denied parent should be denied")
	}
}
