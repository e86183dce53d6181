package errors

import (
	"reflect"
	"testing"
)

func TestFieldErrors(t *testing.T) {
	// Errors are created once so results can be compared with DeepEqual.
	var (
		keyAddr    = Field("Address", ErrEmpty, "key 0")
		keyPurpose = Field("Purposes", ErrInput, "unknown purpose 9")
		mgmtCount  = Field("ManagementThreshold", ErrInput, "above key count")
		mgmtEmpty  = Field("ManagementThreshold", ErrEmpty, "")
		keys       = Field("Keys", Append(keyAddr, keyPurpose), "")
		outerKeys  = Field("Keys", Field("Keys", ErrDuplicate, "inner"), "outer")
	)

	cases := map[string]struct {
		err   error
		field string
		want  []error
	}{
		"nil": {
			err:   nil,
			field: "Keys",
			want:  nil,
		},
		"plain error has no fields": {
			err:   ErrUnauthorized,
			field: "Keys",
			want:  nil,
		},
		"direct match": {
			err:   mgmtCount,
			field: "ManagementThreshold",
			want:  []error{mgmtCount},
		},
		"other field": {
			err:   mgmtCount,
			field: "ExecutionThreshold",
			want:  nil,
		},
		"nested field inside a multi error": {
			err:   keys,
			field: "Purposes",
			want:  []error{keyPurpose},
		},
		"outer field wins over a nested one": {
			err:   keys,
			field: "Keys",
			want:  []error{keys},
		},
		"same name nested returns the outer": {
			err:   outerKeys,
			field: "Keys",
			want:  []error{outerKeys},
		},
		"found through wraps": {
			err:   Wrap(Wrapf(keys, "identity %d", 1), "create"),
			field: "Address",
			want:  []error{keyAddr},
		},
		"collected from several branches": {
			err: Append(
				Wrap(mgmtCount, "thresholds"),
				mgmtEmpty,
				keys,
			),
			field: "ManagementThreshold",
			want:  []error{mgmtCount, mgmtEmpty},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldErrors(tc.err, tc.field)
			if len(got) != len(tc.want) {
				t.Fatalf("want %d errors, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if got[i].Error() != tc.want[i].Error() {
					t.Errorf("error %d: want %q, got %q", i, tc.want[i], got[i])
				}
			}
			if tc.field == "Keys" && len(got) == 1 && !reflect.DeepEqual(got[0], tc.want[0]) {
				t.Errorf("want the same instance, got %#v", got[0])
			}
		})
	}
}
