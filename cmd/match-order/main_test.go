package main

import (
	"reflect"
	"testing"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("7, 9,12")
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	if want := []uint64{7, 9, 12}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	for _, bad := range []string{"", " ", "0", "7,x", "-1", "1,,2"} {
		if _, err := parseIDs(bad); err == nil {
			t.Errorf("parseIDs(%q) succeeded, want error", bad)
		}
	}
}
