package modules

import (
	"errors"
	"reflect"
	"testing"
)

func TestMerge_HigherTierWinsScalar(t *testing.T) {
	defs := []Definition{
		{Path: "a.port", Value: 5432, Tier: TierUpstream, Rank: 0, Origin: Origin{Role: "db", Module: "services/db"}},
		{Path: "a.port", Value: 5433, Tier: TierRole, Rank: 0, Origin: Origin{Role: "db"}},
		{Path: "a.port", Value: 5434, Tier: TierOperator, Rank: 0, Origin: Origin{Override: 1}},
	}

	merged, err := mergeDefinitions(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mv := merged["a.port"]
	if mv.value != 5434 {
		t.Errorf("expected operator value 5434, got %v", mv.value)
	}
	if mv.source.Tier != TierOperator {
		t.Errorf("expected operator tier attribution, got %v", mv.source.Tier)
	}
	if mv.source.Override != 1 {
		t.Errorf("expected override #1 attribution, got %d", mv.source.Override)
	}
}

func TestMerge_HigherRankWinsWithinTier(t *testing.T) {
	defs := []Definition{
		{Path: "a.flavor", Value: "first", Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
		{Path: "a.flavor", Value: "second", Tier: TierRole, Rank: 1, Origin: Origin{Role: "two"}},
	}

	merged, err := mergeDefinitions(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged["a.flavor"].value != "second" {
		t.Errorf("expected the later-ranked role to win, got %v", merged["a.flavor"].value)
	}
	if merged["a.flavor"].source.Role != "two" {
		t.Errorf("expected attribution to role two, got %q", merged["a.flavor"].source.Role)
	}
}

func TestMerge_ListsConcatenateInPrecedenceOrder(t *testing.T) {
	defs := []Definition{
		{Path: "fw.ports", Value: []any{443}, Tier: TierRole, Rank: 1, Origin: Origin{Role: "two"}},
		{Path: "fw.ports", Value: []any{80}, Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
		{Path: "fw.ports", Value: []any{22}, Tier: TierUpstream, Rank: 0, Origin: Origin{Role: "one", Module: "base"}},
		{Path: "fw.ports", Value: []any{8443}, Tier: TierOperator, Rank: 0, Origin: Origin{Override: 1}},
	}

	merged, err := mergeDefinitions(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []any{22, 80, 443, 8443}
	if !reflect.DeepEqual(merged["fw.ports"].value, want) {
		t.Errorf("expected %v, got %v", want, merged["fw.ports"].value)
	}
	if !merged["fw.ports"].source.Concatenated {
		t.Error("expected the source to be marked as concatenated")
	}
}

func TestMerge_ForcedReplacesConcatenation(t *testing.T) {
	defs := []Definition{
		{Path: "fw.ports", Value: []any{22}, Tier: TierUpstream, Rank: 0, Origin: Origin{Role: "one", Module: "base"}},
		{Path: "fw.ports", Value: []any{80, 443}, Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
		{Path: "fw.ports", Value: []any{8080}, Tier: TierOperator, Rank: 0, Force: true, Origin: Origin{Override: 1}},
	}

	merged, err := mergeDefinitions(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []any{8080}
	if !reflect.DeepEqual(merged["fw.ports"].value, want) {
		t.Errorf("expected the forced list %v, got %v", want, merged["fw.ports"].value)
	}
	if !merged["fw.ports"].source.Forced {
		t.Error("expected the source to be marked as forced")
	}
	if merged["fw.ports"].source.Concatenated {
		t.Error("a forced value must not be marked as concatenated")
	}
}

func TestMerge_ForceOutranksHigherRank(t *testing.T) {
	defs := []Definition{
		{Path: "a.mode", Value: "pinned", Tier: TierOperator, Rank: 0, Force: true, Origin: Origin{Override: 1}},
		{Path: "a.mode", Value: "later", Tier: TierOperator, Rank: 1, Origin: Origin{Override: 2}},
	}

	merged, err := mergeDefinitions(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged["a.mode"].value != "pinned" {
		t.Errorf("expected the forced value to win, got %v", merged["a.mode"].value)
	}
}

func TestMerge_OrderIndependence(t *testing.T) {
	forward := []Definition{
		{Path: "a.port", Value: 1, Tier: TierUpstream, Rank: 0, Origin: Origin{Role: "one", Module: "m1"}},
		{Path: "a.port", Value: 2, Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
		{Path: "a.port", Value: 3, Tier: TierRole, Rank: 1, Origin: Origin{Role: "two"}},
		{Path: "fw.ports", Value: []any{1}, Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
		{Path: "fw.ports", Value: []any{2}, Tier: TierRole, Rank: 1, Origin: Origin{Role: "two"}},
	}
	backward := make([]Definition, len(forward))
	for i, def := range forward {
		backward[len(forward)-1-i] = def
	}

	a, err := mergeDefinitions(forward)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := mergeDefinitions(backward)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Errorf("merge result depends on collection order: %v vs %v", a, b)
	}
}

func TestMerge_MixedListAndScalarConflicts(t *testing.T) {
	defs := []Definition{
		{Path: "a.ports", Value: []any{80}, Tier: TierUpstream, Rank: 0, Origin: Origin{Role: "one", Module: "m1"}},
		{Path: "a.ports", Value: 443, Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
	}

	_, err := mergeDefinitions(defs)
	var conflict *MergeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected a MergeConflictError, got %v", err)
	}
	if conflict.Path != "a.ports" {
		t.Errorf("expected conflict on a.ports, got %q", conflict.Path)
	}
}

func TestMerge_PathUsedAsValueAndNamespace(t *testing.T) {
	defs := []Definition{
		{Path: "a.b", Value: 1, Tier: TierRole, Rank: 0, Origin: Origin{Role: "one"}},
		{Path: "a.b.c", Value: 2, Tier: TierRole, Rank: 1, Origin: Origin{Role: "two"}},
	}

	_, err := mergeDefinitions(defs)
	var conflict *MergeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected a MergeConflictError, got %v", err)
	}
	if conflict.Path != "a.b" {
		t.Errorf("expected conflict on a.b, got %q", conflict.Path)
	}
}

func TestMerge_SinglePathStandsAlone(t *testing.T) {
	defs := []Definition{
		{Path: "a.enable", Value: true, Tier: TierUpstream, Rank: 0, Origin: Origin{Role: "one", Module: "m1"}},
	}

	merged, err := mergeDefinitions(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged["a.enable"].value != true {
		t.Errorf("expected true, got %v", merged["a.enable"].value)
	}
	if merged["a.enable"].source.Tier != TierUpstream {
		t.Errorf("expected upstream attribution, got %v", merged["a.enable"].source.Tier)
	}
}
