package queue_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"llcqueue/internal/queue"
)

func TestParseItemIDs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []int64
	}{
		{name: "scalar", args: []string{"7"}, want: []int64{7}},
		{name: "several args", args: []string{"3", "1"}, want: []int64{3, 1}},
		{name: "comma list", args: []string{"1,2, 5"}, want: []int64{1, 2, 5}},
		{name: "range", args: []string{"10-13"}, want: []int64{10, 11, 12, 13}},
		{name: "mixed", args: []string{"0,4-5", "9"}, want: []int64{0, 4, 5, 9}},
		{name: "single element range", args: []string{"8-8"}, want: []int64{8}},
		{name: "range ending at max int64", args: []string{"9223372036854775806-9223372036854775807"}, want: []int64{math.MaxInt64 - 1, math.MaxInt64}},
		{name: "single range at max int64", args: []string{"9223372036854775807-9223372036854775807"}, want: []int64{math.MaxInt64}},
		{name: "none", args: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queue.ParseItemIDs(tt.args...)
			if err != nil {
				t.Fatalf("ParseItemIDs: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseItemIDsRejectsMalformed(t *testing.T) {
	for _, arg := range []string{"", "abc", "1.5", "-3", "5-2", "1,,2", "2-x", "0-2000000"} {
		if _, err := queue.ParseItemIDs(arg); queue.Kind(err) != queue.KindInvalidInput {
			t.Fatalf("expected invalid input for %q, got %v", arg, err)
		}
	}
}
