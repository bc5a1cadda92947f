package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

// Pagination holds the page size defaults of list endpoints.
type Pagination struct {
	PageSize int
	MaxSize  int
}

// pageRequest reads page and limit from the query string. An invalid page
// answers 404 like a page past the end.
func (p Pagination) pageRequest(c *gin.Context) (types.PageRequest, bool) {
	req := types.PageRequest{Page: 1, Limit: p.PageSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "invalid page"})
			return req, false
		}
		req.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err == nil && limit > 0 {
			req.Limit = limit
		}
	}
	if p.MaxSize > 0 && req.Limit > p.MaxSize {
		req.Limit = p.MaxSize
	}
	return req, true
}

// respondPage writes the count/next/previous/results envelope.
func respondPage[T any](c *gin.Context, req types.PageRequest, page *types.Page[T]) {
	if req.Page > 1 && len(page.Items) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "invalid page"})
		return
	}

	resp := types.PaginatedResponse{Count: page.Total, Results: page.Items}
	if page.Items == nil {
		resp.Results = []T{}
	}
	if int64(req.Page*req.Limit) < page.Total {
		next := pageURL(c, req.Page+1)
		resp.Next = &next
	}
	if req.Page > 1 {
		prev := pageURL(c, req.Page-1)
		resp.Previous = &prev
	}
	c.JSON(http.StatusOK, resp)
}

// pageURL is the absolute URL of the current request on another page. The
// page parameter is dropped for the first page.
func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
