// Package optimize merges compatible policy paths to reduce the number of
// emitted policies. Paths whose leaf state and action list are identical
// are clustered, and the condition sets within a cluster are unioned.
//
// The pass is opt-in: merged policies trade the one-policy-per-path
// guarantee for a smaller policy count, which some tenants prefer when the
// platform caps the number of importable policies.
package optimize

import (
	"fmt"
	"sort"
	"strings"

	"capl-hq/capl/pkg/capl/ast"
	"capl-hq/capl/pkg/capl/flatten"
)

// Cluster groups normalized paths by action signature and merges each
// group into a single path. Output order follows the first appearance of
// each signature; indexes are renumbered from 1.
func Cluster(paths []*flatten.NormalizedPath) []*flatten.NormalizedPath {
	bysig := make(map[string][]*flatten.NormalizedPath)
	var order []string

	for _, np := range paths {
		sig := Signature(np.Path)
		if _, seen := bysig[sig]; !seen {
			order = append(order, sig)
		}
		bysig[sig] = append(bysig[sig], np)
	}

	merged := make([]*flatten.NormalizedPath, 0, len(order))
	for i, sig := range order {
		merged = append(merged, mergeCluster(bysig[sig], i+1))
	}
	return merged
}

// Signature returns the canonical state-and-action fingerprint of a path.
// Two paths with equal signatures enforce the same outcome and may merge.
func Signature(path *flatten.PolicyPath) string {
	parts := make([]string, 0, len(path.Actions)+1)
	for _, action := range path.Actions {
		switch action.Kind {
		case ast.ActionBlock:
			parts = append(parts, "BLOCK")
		case ast.ActionAllow:
			parts = append(parts, "ALLOW")
		case ast.ActionGrant:
			controls := append([]string(nil), action.Controls...)
			sort.Strings(controls)
			op := "AND"
			if action.IsGrantOR() {
				op = "OR"
			}
			parts = append(parts, "REQUIRE:"+op+":"+strings.Join(controls, ","))
		case ast.ActionSession:
			if action.Session != nil {
				parts = append(parts, fmt.Sprintf("SESSION:%s:%d:%s:%s",
					action.Session.Kind, action.Session.Value, action.Session.Unit, action.Session.Mode))
			}
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "|") + "|STATE:" + string(path.State)
}

// mergeCluster unions the condition buckets of every path in the cluster.
// State and actions come from the first member; the signature guarantees
// they are interchangeable.
func mergeCluster(cluster []*flatten.NormalizedPath, index int) *flatten.NormalizedPath {
	first := cluster[0]
	if len(cluster) == 1 {
		merged := *first
		merged.Path = clonePathAt(first.Path, index)
		return &merged
	}

	type key struct {
		category ast.Category
		scope    ast.UserScope
	}
	byKey := make(map[key]*flatten.Bucket)
	var order []key

	for _, np := range cluster {
		for _, bucket := range np.Buckets {
			k := key{bucket.Category, bucket.Scope}
			have, ok := byKey[k]
			if !ok {
				have = &flatten.Bucket{Category: bucket.Category, Scope: bucket.Scope}
				byKey[k] = have
				order = append(order, k)
			}
			have.Include = unionValues(have.Include, bucket.Include)
			have.Exclude = unionValues(have.Exclude, bucket.Exclude)
		}
	}

	buckets := make([]*flatten.Bucket, 0, len(order))
	for _, k := range order {
		buckets = append(buckets, byKey[k])
	}

	return &flatten.NormalizedPath{
		Path:    clonePathAt(first.Path, index),
		Buckets: buckets,
	}
}

// clonePathAt copies a path with a new index and no raw condition stack.
// Merged policies are named by position alone since their conditions no
// longer describe a single source branch.
func clonePathAt(path *flatten.PolicyPath, index int) *flatten.PolicyPath {
	return &flatten.PolicyPath{
		State:    path.State,
		Actions:  path.Actions,
		Index:    index,
		Location: path.Location,
	}
}

func unionValues(dst, src []ast.Value) []ast.Value {
	for _, v := range src {
		found := false
		for _, have := range dst {
			if have.Key() == v.Key() {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
