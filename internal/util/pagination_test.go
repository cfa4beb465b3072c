package util

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	cases := []struct {
		page, size int
		want       Page
	}{
		{0, 0, Page{Page: 1, Size: 10, Offset: 0}},
		{3, 20, Page{Page: 3, Size: 20, Offset: 40}},
		{-2, 500, Page{Page: 1, Size: 10, Offset: 0}},
		{2, 100, Page{Page: 2, Size: 100, Offset: 100}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Paginate(tc.page, tc.size))
	}
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, Page{Page: 2, Size: 5, Offset: 5}, ParsePage("2", "5"))
	assert.Equal(t, Page{Page: 1, Size: 10}, ParsePage("x", ""))
}

func TestPaginate_HugePageDoesNotWrap(t *testing.T) {
	for _, size := range []int{1, DefaultPageSize, MaxPageSize} {
		p := Paginate(math.MaxInt, size)
		assert.Equal(t, MaxPage, p.Page)
		assert.GreaterOrEqual(t, p.Offset, 0)
		assert.Equal(t, (MaxPage-1)*size, p.Offset)
	}

	p := ParsePage(strconv.Itoa(math.MaxInt), strconv.Itoa(MaxPageSize))
	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset)
}
