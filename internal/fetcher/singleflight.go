package fetcher

import (
	"harbortags/internal/harbor"

	"golang.org/x/sync/singleflight"
)

// flightGroup collapses concurrent tag queries with the same key into a single
// request. Nothing is remembered once the request returns.
type flightGroup struct {
	g singleflight.Group
}

// do runs fn once per in-flight key. shared reports whether the result was
// handed to more than one caller.
func (g *flightGroup) do(key string, fn func() (harbor.TagList, error)) (list harbor.TagList, shared bool, err error) {
	v, err, shared := g.g.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return harbor.TagList{}, shared, err
	}
	return v.(harbor.TagList), shared, nil
}
