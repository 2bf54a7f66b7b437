package storyboard

import "testing"

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00.000"},
		{1, "00:00:01.000"},
		{59, "00:00:59.000"},
		{60, "00:01:00.000"},
		{3599, "00:59:59.000"},
		{3600, "01:00:00.000"},
		{7384, "02:03:04.000"},
		{360000, "100:00:00.000"},
		{-5, "00:00:00.000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
