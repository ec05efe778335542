// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"fmt"
)

// TemporalSplit partitions the feature set chronologically: the last
// testSize fraction becomes test, the last validSize fraction of the
// remainder becomes validation, the earliest rows train. No shuffling;
// validation and test always postdate training. Both cuts floor on the
// row count.
func TemporalSplit(t *Table, testSize, validSize float64) (train, valid, test *Table, err error) {
	if testSize <= 0 || testSize >= 1 || validSize <= 0 || validSize >= 1 {
		return nil, nil, nil, fmt.Errorf("split fractions must be in (0,1): test_size=%v, valid_size=%v", testSize, validSize)
	}
	if testSize+validSize >= 1 {
		return nil, nil, nil, fmt.Errorf("split fractions must sum below 1: test_size=%v, valid_size=%v", testSize, validSize)
	}

	sorted, err := t.SortBy(ColLoggedAt)
	if err != nil {
		return nil, nil, nil, err
	}

	n := sorted.Len()
	nTest := int(float64(n) * testSize)
	rest := n - nTest
	nValid := int(float64(rest) * validSize)

	train = sorted.Slice(0, rest-nValid)
	valid = sorted.Slice(rest-nValid, rest)
	test = sorted.Slice(rest, n)
	return train, valid, test, nil
}
