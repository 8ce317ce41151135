package modules

import (
	"fmt"
	"sort"
)

// mergedValue is the outcome of merging all definitions for one path.
type mergedValue struct {
	value  any
	source Source
}

// mergeDefinitions combines the collected definitions into final values.
// It is a pure function: the input slice and the definitions themselves
// are never modified, and the result depends only on the definition set,
// not on the order modules happened to be imported in.
//
// Precedence per path: a forced definition beats everything; otherwise
// higher tiers beat lower tiers, and higher ranks beat lower ranks
// within a tier. When every definition for a path is a list and none is
// forced, the lists are concatenated in ascending precedence order
// instead of replaced.
func mergeDefinitions(defs []Definition) (map[string]mergedValue, error) {
	groups := make(map[string][]Definition)
	for _, def := range defs {
		groups[def.Path] = append(groups[def.Path], def)
	}

	if err := checkPathCollisions(groups); err != nil {
		return nil, err
	}

	merged := make(map[string]mergedValue, len(groups))
	for path, group := range groups {
		value, source, err := mergeGroup(group)
		if err != nil {
			return nil, err
		}
		merged[path] = mergedValue{value: value, source: source}
	}
	return merged, nil
}

// mergeGroup merges the definitions for a single path.
func mergeGroup(group []Definition) (any, Source, error) {
	ordered := make([]Definition, len(group))
	copy(ordered, group)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Force != b.Force {
			return !a.Force
		}
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		return a.Rank < b.Rank
	})

	winner := ordered[len(ordered)-1]

	// A forced definition replaces the merged value outright, lists
	// included.
	if winner.Force {
		return winner.Value, sourceOf(winner, false), nil
	}

	lists := 0
	for _, def := range ordered {
		if isList(def.Value) {
			lists++
		}
	}

	switch {
	case lists == 0:
		return winner.Value, sourceOf(winner, false), nil

	case lists == len(ordered):
		var combined []any
		for _, def := range ordered {
			combined = append(combined, def.Value.([]any)...)
		}
		return combined, sourceOf(winner, true), nil

	default:
		var listOrigin, scalarOrigin Origin
		for _, def := range ordered {
			if isList(def.Value) {
				listOrigin = def.Origin
			} else {
				scalarOrigin = def.Origin
			}
		}
		return nil, Source{}, &MergeConflictError{
			Path:   winner.Path,
			Reason: fmt.Sprintf("%s defines a list but %s defines a single value", listOrigin, scalarOrigin),
		}
	}
}

// checkPathCollisions rejects definition sets where one option path is a
// dotted prefix of another, e.g. a value at "a.b" next to a value at
// "a.b.c". Such a set cannot be rendered as a nested document.
func checkPathCollisions(groups map[string][]Definition) error {
	paths := make([]string, 0, len(groups))
	for path := range groups {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		for i := range path {
			if path[i] != '.' {
				continue
			}
			parent := path[:i]
			if parentGroup, ok := groups[parent]; ok {
				return &MergeConflictError{
					Path:   parent,
					Reason: fmt.Sprintf("set to a value by %s but used as a namespace by option %q", parentGroup[0].Origin, path),
				}
			}
		}
	}
	return nil
}

// sourceOf converts the winning definition into attribution metadata.
func sourceOf(def Definition, concatenated bool) Source {
	return Source{
		Tier:         def.Tier,
		Role:         def.Origin.Role,
		Module:       def.Origin.Module,
		Snapshot:     def.Origin.Snapshot,
		Override:     def.Origin.Override,
		Forced:       def.Force,
		Concatenated: concatenated,
	}
}

// isList reports whether a value is a YAML sequence.
func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}
