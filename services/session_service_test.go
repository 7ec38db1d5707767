package services

import "testing"

func TestSessionScore(t *testing.T) {
	tests := []struct {
		used, max int
		want      int
	}{
		{1, 20, 100}, // first-question win keeps the full score
		{2, 20, 95},
		{5, 20, 80},
		{11, 20, 50},
		{20, 20, 10}, // the floor
		{25, 20, 10}, // never below the floor
		{1, 10, 100},
		{6, 10, 50},
		{3, 0, 10}, // degenerate limit
	}
	for _, tt := range tests {
		if got := SessionScore(tt.used, tt.max); got != tt.want {
			t.Errorf("SessionScore(%d, %d) = %d, want %d", tt.used, tt.max, got, tt.want)
		}
	}
}
