package projecta

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tyemirov/projectactl/internal/apiclient"
)

// Caller is the slice of apiclient.Client the repositories need.
type Caller interface {
	Get(ctx context.Context, path string, out any, options ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body any, out any, options ...apiclient.RequestOption) error
	Put(ctx context.Context, path string, body any, out any, options ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, out any, options ...apiclient.RequestOption) error
}

// DefaultPageLimit matches the server's default page size.
const DefaultPageLimit = 10

// Page selects a slice of a collection.
type Page struct {
	Limit  int
	Offset int
}

func (page Page) queryString() string {
	limit := page.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(page.Offset))
	return values.Encode()
}

func collectionPath(projectID string, resource string, page Page) string {
	return fmt.Sprintf("/projects/%s/%s?%s", projectID, resource, page.queryString())
}

func resourcePath(projectID string, resource string, resourceID string) string {
	return fmt.Sprintf("/projects/%s/%s/%s", projectID, resource, resourceID)
}

type namedDTO struct {
	Name string `json:"name"`
}
