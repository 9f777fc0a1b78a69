package repository

import "testing"

func TestNormalizePageRequest(t *testing.T) {
	cases := map[string]struct {
		in   PageRequest
		want PageRequest
	}{
		"zero value gets defaults": {PageRequest{}, PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}},
		"negative page floored":    {PageRequest{Page: -3, PageSize: 10}, PageRequest{Page: DefaultPage, PageSize: 10}},
		"zero size gets default":   {PageRequest{Page: 4, PageSize: 0}, PageRequest{Page: 4, PageSize: DefaultPageSize}},
		"oversized capped":         {PageRequest{Page: 1, PageSize: MaxPageSize * 2}, PageRequest{Page: 1, PageSize: MaxPageSize}},
		"in range untouched":       {PageRequest{Page: 3, PageSize: 50}, PageRequest{Page: 3, PageSize: 50}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := normalizePageRequest(tc.in); got != tc.want {
				t.Fatalf("normalizePageRequest(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCalcTotalPages(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 25, 0},
		{5, 0, 0},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{100, 25, 4},
	}
	for _, tc := range cases {
		if got := calcTotalPages(tc.total, tc.pageSize); got != tc.want {
			t.Fatalf("calcTotalPages(%d, %d) = %d, want %d", tc.total, tc.pageSize, got, tc.want)
		}
	}
}

func FuzzNormalizePageRequestBounds(f *testing.F) {
	f.Add(0, 0)
	f.Add(-10, MaxPageSize+1)
	f.Add(7, 50)

	f.Fuzz(func(t *testing.T, page, pageSize int) {
		got := normalizePageRequest(PageRequest{Page: page, PageSize: pageSize})
		if got.Page < 1 {
			t.Fatalf("page must be positive, got %d", got.Page)
		}
		if got.PageSize < 1 || got.PageSize > MaxPageSize {
			t.Fatalf("page size out of bounds: %d", got.PageSize)
		}
	})
}
