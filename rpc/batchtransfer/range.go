package batchtransfer

import (
	"errors"
	"math/big"
)

// Range is an inclusive range of asset IDs.
type Range struct {
	Start *big.Int
	End   *big.Int
}

// Width returns the number of IDs in the inclusive [start, end] range. The
// result is not positive for start > end.
func Width(start, end *big.Int) *big.Int {
	w := new(big.Int).Sub(end, start)
	return w.Add(w, big.NewInt(1))
}

// Width returns the number of IDs in the range.
func (r Range) Width() *big.Int {
	return Width(r.Start, r.End)
}

// SplitRange cuts [start, end] into consecutive ranges of at most
// maxBatchSize IDs, each of them can be transferred with a single call.
func SplitRange(start, end, maxBatchSize *big.Int) ([]Range, error) {
	if maxBatchSize.Sign() <= 0 {
		return nil, errors.New("non-positive batch size")
	}
	if start.Sign() < 0 || start.Cmp(end) > 0 {
		return nil, &RangeError{Start: new(big.Int).Set(start), End: new(big.Int).Set(end)}
	}

	var (
		res  []Range
		step = new(big.Int).Sub(maxBatchSize, big.NewInt(1))
		cur  = new(big.Int).Set(start)
	)
	for cur.Cmp(end) <= 0 {
		last := new(big.Int).Add(cur, step)
		if last.Cmp(end) > 0 {
			last.Set(end)
		}
		res = append(res, Range{Start: cur, End: last})
		cur = new(big.Int).Add(last, big.NewInt(1))
	}

	return res, nil
}

// CompactRanges folds ascending IDs into the minimal list of contiguous
// ranges. It can be used to turn GetMissingTokens result into ranges.
func CompactRanges(ids []*big.Int) []Range {
	var res []Range
	for _, id := range ids {
		if n := len(res); n > 0 {
			next := new(big.Int).Add(res[n-1].End, big.NewInt(1))
			if next.Cmp(id) == 0 {
				res[n-1].End = next
				continue
			}
		}
		res = append(res, Range{Start: new(big.Int).Set(id), End: new(big.Int).Set(id)})
	}
	return res
}

// Exclude returns parts of the [start, end] range not covered by the given
// ascending IDs. Together with GetMissingTokens it gives the ranges an account
// fully owns.
func Exclude(start, end *big.Int, ids []*big.Int) []Range {
	var (
		res []Range
		cur = new(big.Int).Set(start)
	)
	for _, id := range ids {
		if id.Cmp(cur) < 0 || id.Cmp(end) > 0 {
			continue
		}
		if id.Cmp(cur) > 0 {
			res = append(res, Range{Start: cur, End: new(big.Int).Sub(id, big.NewInt(1))})
		}
		cur = new(big.Int).Add(id, big.NewInt(1))
	}
	if cur.Cmp(end) <= 0 {
		res = append(res, Range{Start: cur, End: new(big.Int).Set(end)})
	}
	return res
}
