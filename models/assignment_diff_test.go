package models

import (
	"sort"
	"testing"
)

func sortedCopy(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}

func equalIds(a, b []int) bool {
	a, b = sortedCopy(a), sortedCopy(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssignmentDiff(t *testing.T) {
	cases := []struct {
		name       string
		existing   []int
		target     []int
		wantAdd    []int
		wantDelete []int
	}{
		{"overlap keeps intersection", []int{1, 2, 3}, []int{2, 3, 4}, []int{4}, []int{1}},
		{"identical sets change nothing", []int{1, 2, 3}, []int{1, 2, 3}, nil, nil},
		{"empty target deletes all", []int{5, 6}, nil, nil, []int{5, 6}},
		{"empty existing adds all", nil, []int{7, 8}, []int{7, 8}, nil},
		{"both empty", nil, nil, nil, nil},
		{"duplicate target ids collapse", []int{1}, []int{2, 2, 1}, []int{2}, nil},
		{"duplicate existing ids collapse", []int{3, 3}, []int{4}, []int{4}, []int{3}},
		{"order does not matter", []int{3, 1, 2}, []int{2, 4, 3}, []int{4}, []int{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toAdd, toDelete := assignmentDiff(tc.existing, tc.target)
			if !equalIds(toAdd, tc.wantAdd) {
				t.Errorf("toAdd = %v, want %v", toAdd, tc.wantAdd)
			}
			if !equalIds(toDelete, tc.wantDelete) {
				t.Errorf("toDelete = %v, want %v", toDelete, tc.wantDelete)
			}
		})
	}
}

func TestAssignmentDiff_Idempotence(t *testing.T) {
	existing := []int{1, 2, 3}
	target := []int{2, 3, 4}

	toAdd, toDelete := assignmentDiff(existing, target)

	// apply the diff, then diff again against the same target
	applied := map[int]bool{}
	for _, id := range existing {
		applied[id] = true
	}
	for _, id := range toDelete {
		delete(applied, id)
	}
	for _, id := range toAdd {
		applied[id] = true
	}
	var next []int
	for id := range applied {
		next = append(next, id)
	}

	toAdd2, toDelete2 := assignmentDiff(next, target)
	if len(toAdd2) != 0 || len(toDelete2) != 0 {
		t.Errorf("second diff should be empty, got add=%v delete=%v", toAdd2, toDelete2)
	}
}
