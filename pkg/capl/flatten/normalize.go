package flatten

import (
	"fmt"

	"capl-hq/capl/pkg/capl/ast"
	caplerrors "capl-hq/capl/pkg/capl/errors"
)

// Bucket holds the merged include and exclude value sets for one condition
// category along a single path. User conditions keep group and role scopes
// in separate buckets because the emitted record keeps them in separate
// fields.
type Bucket struct {
	Category ast.Category
	Scope    ast.UserScope
	Include  []ast.Value
	Exclude  []ast.Value
}

// NormalizedPath is a PolicyPath whose raw condition stack has been merged
// into per-category buckets, ready for emission.
type NormalizedPath struct {
	Path    *PolicyPath
	Buckets []*Bucket // stable order: first occurrence along the path
}

// Normalize merges a path's condition stack into per-category buckets.
// Positive conditions add to the include set; negated conditions add to the
// exclude set of categories that have one. It reports a contradiction when
// the same value lands in both sets of a bucket, and an unsupported
// negation when a negated condition targets a category with no exclude
// slot. Diagnostics go to errs; the returned path is nil when any were
// added.
func Normalize(path *PolicyPath, errs *caplerrors.ErrorList) *NormalizedPath {
	before := errs.Count()

	byKey := make(map[bucketKey]*Bucket)
	var order []bucketKey

	for _, cond := range path.Conditions {
		if cond.Negated && !cond.Category.HasExcludeSlot() {
			errs.Add(&caplerrors.Error{
				Type: caplerrors.ErrorTypeUnsupportedNegation,
				Message: fmt.Sprintf("cannot negate %s condition: the generated policy has no exclusion field for this category",
					cond.Category),
				Location:   cond.Location,
				Suggestion: "restructure the branch so the " + string(cond.Category) + " condition is stated positively",
			})
			continue
		}

		key := bucketKey{cond.Category, cond.Scope}
		bucket, ok := byKey[key]
		if !ok {
			bucket = &Bucket{Category: cond.Category, Scope: cond.Scope}
			byKey[key] = bucket
			order = append(order, key)
		}

		for _, v := range cond.Values {
			if cond.Negated {
				bucket.Exclude = addValue(bucket.Exclude, v)
			} else {
				bucket.Include = addValue(bucket.Include, v)
			}
		}
	}

	for _, key := range order {
		bucket := byKey[key]
		for _, v := range bucket.Include {
			if containsValue(bucket.Exclude, v) {
				errs.Add(&caplerrors.Error{
					Type: caplerrors.ErrorTypeContradiction,
					Message: fmt.Sprintf("path %d both includes and excludes %s in its %s condition",
						path.Index, valueLabel(v), bucket.Category),
					Location:   path.Location,
					Suggestion: "remove one of the conflicting conditions or split the branch",
				})
			}
		}
	}

	if errs.Count() > before {
		return nil
	}

	buckets := make([]*Bucket, 0, len(order))
	for _, key := range order {
		buckets = append(buckets, byKey[key])
	}
	return &NormalizedPath{Path: path, Buckets: buckets}
}

type bucketKey struct {
	category ast.Category
	scope    ast.UserScope
}

// addValue appends v unless an equal value is already present. Identity
// follows ast.Value.Key, so a resolved variable and a literal with the same
// GUID collapse to one entry.
func addValue(values []ast.Value, v ast.Value) []ast.Value {
	if containsValue(values, v) {
		return values
	}
	return append(values, v)
}

func containsValue(values []ast.Value, v ast.Value) bool {
	for _, have := range values {
		if have.Key() == v.Key() {
			return true
		}
	}
	return false
}

func valueLabel(v ast.Value) string {
	if v.Name != "" {
		return fmt.Sprintf("%q", v.Name)
	}
	return v.Key()
}
