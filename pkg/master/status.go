// Package master ties the namespace tree, the merging journal and the
// under-store together: it reconciles cached metadata against the
// store before an operation proceeds and publishes every namespace
// mutation through a merging journal context.
package master

import (
	"fmt"
	"strings"
)

// SyncStatus is the outcome of one sync invocation. Callers branch on
// it before reading or mutating namespace state.
type SyncStatus uint8

const (
	// SyncNotNeeded means no divergence was found, or the freshness
	// window had not elapsed.
	SyncNotNeeded SyncStatus = iota

	// SyncOK means mutations were applied and flushed.
	SyncOK

	// SyncFailed means the under-store was unreachable or the flush
	// did not complete.
	SyncFailed
)

func (s SyncStatus) String() string {
	switch s {
	case SyncNotNeeded:
		return "not_needed"
	case SyncOK:
		return "ok"
	case SyncFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DescendantPolicy bounds how deep one sync pass descends below its
// target path.
type DescendantPolicy uint8

const (
	// DescendantNone reconciles the target path only.
	DescendantNone DescendantPolicy = iota

	// DescendantOne reconciles the target and its immediate children.
	DescendantOne

	// DescendantAll reconciles the full subtree.
	DescendantAll
)

func (p DescendantPolicy) String() string {
	switch p {
	case DescendantNone:
		return "none"
	case DescendantOne:
		return "one"
	case DescendantAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseDescendantPolicy converts a configuration string to a policy.
func ParseDescendantPolicy(s string) (DescendantPolicy, error) {
	switch strings.ToLower(s) {
	case "none":
		return DescendantNone, nil
	case "one":
		return DescendantOne, nil
	case "all":
		return DescendantAll, nil
	default:
		return DescendantNone, fmt.Errorf("unknown descendant policy %q", s)
	}
}
