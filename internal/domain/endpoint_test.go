package domain

import "testing"

func TestGroupCodeOf(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"1001", "1001"},
		{"123456-A", "1234"},
		{"42", "42"},
		{" 77 ", "77"},
		{"STORE-9", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := GroupCodeOf(tt.id); got != tt.want {
			t.Errorf("GroupCodeOf(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestLessOrdersByNumericPrefixThenString(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2", "10", true},
		{"10", "2", false},
		{"1001", "1001-B", true},
		{"1001", "1001", false},
		{"9999", "store-x", true},
		{"abc", "abd", true},
	}
	for _, tt := range tests {
		if got := Less(tt.a, tt.b); got != tt.want {
			t.Errorf("Less(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStatusCode(t *testing.T) {
	if StatusUp.Code() != 0 || StatusDegraded.Code() != 1 || StatusDown.Code() != 2 {
		t.Fatalf("status codes = %d/%d/%d, want 0/1/2",
			StatusUp.Code(), StatusDegraded.Code(), StatusDown.Code())
	}
}
