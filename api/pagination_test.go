// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	testCases := []struct {
		name string
		url  string
		want PaginationParams
	}{
		{
			name: "defaults",
			url:  "/api/v0/proposals",
			want: PaginationParams{Count: DefaultPaginationCount, Page: 1, Order: PaginationOrderAsc},
		},
		{
			name: "explicit",
			url:  "/api/v0/proposals?count=25&page=3&order=DESC",
			want: PaginationParams{Count: 25, Page: 3, Order: PaginationOrderDesc},
		},
		{
			name: "clamped",
			url:  "/api/v0/proposals?count=999&page=0",
			want: PaginationParams{Count: MaxPaginationCount, Page: 1, Order: PaginationOrderAsc},
		},
		{
			name: "count floor",
			url:  "/api/v0/proposals?count=-4",
			want: PaginationParams{Count: 1, Page: 1, Order: PaginationOrderAsc},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			params, err := ParsePagination(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, params)
		})
	}
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, url := range []string{
		"/api/v0/proposals?count=abc",
		"/api/v0/proposals?page=abc",
		"/api/v0/proposals?order=sideways",
	} {
		t.Run(url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, url, nil)
			params, err := ParsePagination(req)
			require.ErrorIs(t, err, ErrInvalidPaginationParameters)
			assert.Equal(t, PaginationParams{}, params)
		})
	}
}

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Apply(items, PaginationParams{Count: 2, Page: 2, Order: PaginationOrderAsc}))
	assert.Equal(t, []int{5}, Apply(items, PaginationParams{Count: 2, Page: 3, Order: PaginationOrderAsc}))
	assert.Empty(t, Apply(items, PaginationParams{Count: 2, Page: 4, Order: PaginationOrderAsc}))
	assert.Equal(t, []int{5, 4}, Apply(items, PaginationParams{Count: 2, Page: 1, Order: PaginationOrderDesc}))
	// The input keeps its order
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

func TestSetPaginationHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	SetPaginationHeaders(recorder, 250, PaginationParams{Count: 100, Page: 1})
	assert.Equal(t, "250", recorder.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", recorder.Header().Get("X-Pagination-Page-Total"))

	recorder = httptest.NewRecorder()
	SetPaginationHeaders(recorder, -1, PaginationParams{})
	assert.Equal(t, "0", recorder.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "0", recorder.Header().Get("X-Pagination-Page-Total"))
}
