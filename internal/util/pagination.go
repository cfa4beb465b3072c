package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*MaxPageSize inside int.
	MaxPage = math.MaxInt / MaxPageSize
)

type Page struct {
	Page   int
	Size   int
	Offset int
}

// Paginate clamps page to [1, MaxPage] and size to (0, MaxPageSize], falling
// back to DefaultPageSize.
func Paginate(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Page: page, Size: size, Offset: (page - 1) * size}
}

// ParsePage reads raw query values; unparsable input behaves like absent input.
func ParsePage(rawPage, rawSize string) Page {
	page, _ := strconv.Atoi(rawPage)
	size, _ := strconv.Atoi(rawSize)
	return Paginate(page, size)
}
