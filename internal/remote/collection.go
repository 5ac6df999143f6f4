package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Collection is a typed view of one remote collection such as /products.
type Collection[T any] struct {
	api  API
	path string
}

func NewCollection[T any](api API, name string) *Collection[T] {
	return &Collection[T]{api: api, path: "/" + name}
}

func (c *Collection[T]) Name() string { return c.path[1:] }

func (c *Collection[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var out []T
	if err := c.api.Do(ctx, http.MethodGet, c.path, query, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := c.api.Do(ctx, http.MethodGet, c.itemPath(id), nil, nil, &out)
	return out, err
}

// Create posts in with any "id" field removed so the server assigns one.
func (c *Collection[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	body, err := withoutID(in)
	if err != nil {
		return out, err
	}
	err = c.api.Do(ctx, http.MethodPost, c.path, nil, body, &out)
	return out, err
}

func (c *Collection[T]) Replace(ctx context.Context, id string, in T) (T, error) {
	var out T
	err := c.api.Do(ctx, http.MethodPut, c.itemPath(id), nil, in, &out)
	return out, err
}

func (c *Collection[T]) Patch(ctx context.Context, id string, fields any) (T, error) {
	var out T
	err := c.api.Do(ctx, http.MethodPatch, c.itemPath(id), nil, fields, &out)
	return out, err
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.api.Do(ctx, http.MethodDelete, c.itemPath(id), nil, nil, nil)
}

func (c *Collection[T]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

func withoutID(v any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode create body: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("create body must be an object: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}
