package board

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2", "10", true},
		{"10", "2", false},
		{"2A", "2B", true},
		{"Bay 3-4", "Bay 3-12", true},
		{"SR1", "SR01", false},
		{"side room", "Side Room 2", true},
		{"7", "7", false},
		{"", "1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NaturalLess(tt.a, tt.b), "NaturalLess(%q, %q)", tt.a, tt.b)
	}
}

func TestNaturalLess_SortsBeds(t *testing.T) {
	beds := []string{"12", "1", "3B", "3A", "20", "2"}
	sort.SliceStable(beds, func(i, j int) bool { return NaturalLess(beds[i], beds[j]) })
	assert.Equal(t, []string{"1", "2", "3A", "3B", "12", "20"}, beds)
}

func TestOrderWards(t *testing.T) {
	in := []string{"Ward 10", "AMU", "Ward 2", "Ward 1", "CCU", "Ward 20"}
	assert.Equal(t, []string{"Ward 1", "Ward 2", "Ward 10", "Ward 20", "AMU", "CCU"}, OrderWards(in))
	assert.Equal(t, []string{"Ward 10", "AMU", "Ward 2", "Ward 1", "CCU", "Ward 20"}, in, "input must not be reordered")
	assert.NotNil(t, OrderWards(nil))
}
