package collection

import (
	"strconv"
	"strings"
)

// OrderPolicy selects how ordering keys are compared. The policy is an
// explicit configuration value passed into the Indexer; there is no
// process-wide default to mutate.
type OrderPolicy string

const (
	// OrderNumeric compares keys as integers when both sides parse as one,
	// so "9" sorts before "10" and zero-padded keys like "086" keep their
	// numeric meaning. Keys that do not parse fall back to a lexicographic
	// comparison against each other and sort after all numeric keys.
	OrderNumeric OrderPolicy = "numeric"
	// OrderLexicographic compares raw key strings byte-wise.
	OrderLexicographic OrderPolicy = "lexicographic"
)

// Valid reports whether the policy names a known comparison rule.
func (p OrderPolicy) Valid() bool {
	switch p {
	case OrderNumeric, OrderLexicographic:
		return true
	default:
		return false
	}
}

// orderKey is a pre-parsed ordering key. Parsing once at index time keeps the
// sort comparator allocation-free.
type orderKey struct {
	raw     string
	num     int64
	numeric bool
}

func parseOrderKey(raw string, policy OrderPolicy) orderKey {
	key := orderKey{raw: strings.TrimSpace(raw)}
	if policy != OrderNumeric {
		return key
	}
	if n, err := strconv.ParseInt(key.raw, 10, 64); err == nil {
		key.num = n
		key.numeric = true
	}
	return key
}

// less implements the documented comparison rule: numeric keys order by
// value, numeric sorts before non-numeric, and everything else falls back to
// byte-wise string comparison.
func (k orderKey) less(other orderKey) bool {
	if k.numeric && other.numeric {
		return k.num < other.num
	}
	if k.numeric != other.numeric {
		return k.numeric
	}
	return k.raw < other.raw
}
