package queue

import (
	"fmt"
	"strconv"
	"strings"
)

// maxRangeSpan caps a single "a-b" range so a typo cannot enqueue billions of ids.
const maxRangeSpan = 1_000_000

// ParseItemIDs normalizes command-line identifiers. Each argument may be a
// single id ("7"), a comma list ("1,2,5"), or an inclusive range ("10-14").
// Order is preserved; anything else is ErrInvalidInput.
func ParseItemIDs(args ...string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				return nil, fmt.Errorf("%w: empty item id in %q", ErrInvalidInput, arg)
			}
			if lo, hi, ok := strings.Cut(part, "-"); ok {
				start, err := parseItemID(lo)
				if err != nil {
					return nil, err
				}
				end, err := parseItemID(hi)
				if err != nil {
					return nil, err
				}
				if end < start {
					return nil, fmt.Errorf("%w: range %q is descending", ErrInvalidInput, part)
				}
				if end-start >= maxRangeSpan {
					return nil, fmt.Errorf("%w: range %q spans more than %d ids", ErrInvalidInput, part, maxRangeSpan)
				}
				// Stop on equality; id++ past math.MaxInt64 would wrap.
				for id := start; ; id++ {
					ids = append(ids, id)
					if id == end {
						break
					}
				}
				continue
			}
			id, err := parseItemID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseItemID(value string) (int64, error) {
	value = strings.TrimSpace(value)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: item id %q is not a non-negative integer", ErrInvalidInput, value)
	}
	return id, nil
}
