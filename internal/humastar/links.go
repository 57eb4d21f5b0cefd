package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// Links holds the RFC 8288 Link header values of each operation path.
// The zero value is ready to use.
type Links struct {
	mu    sync.RWMutex
	paths map[string][]string
}

// Add links from to the target with rel. Duplicates are ignored.
func (l *Links) Add(from, to, rel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paths == nil {
		l.paths = map[string][]string{}
	}
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(l.paths[from], val) {
		l.paths[from] = append(l.paths[from], val)
	}
}

// For returns the links of an operation path.
func (l *Links) For(p string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.paths[p])
}

// Discover derives links from the registered paths: items link to their
// collection, collections to their items and back to entry, and entry
// links to every collection. Paths tagged skipTag are left out. Call
// after all routes are registered.
func (l *Links) Discover(api huma.API, entry, skipTag string) {
	var collections, items []string
	for p, pi := range api.OpenAPI().Paths {
		if tagged(pi, skipTag) {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	paths := api.OpenAPI().Paths
	for _, item := range items {
		if parent := path.Dir(item); paths[parent] != nil {
			l.Add(item, parent, "collection")
			l.Add(parent, item, "item")
		}
	}
	for _, c := range collections {
		if c == entry {
			continue
		}
		l.Add(c, entry, "up")
		l.Add(entry, c, path.Base(c))
	}
	l.Add(entry, "/openapi.json", "service-desc")
	l.Add(entry, "/docs", "service-doc")
}

// Transformer injects the stored links, a self link on item paths, and
// the links of [Pager] and [Actor] response bodies.
func (l *Links) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range l.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

func tagged(pi *huma.PathItem, tag string) bool {
	for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete} {
		if op != nil && slices.Contains(op.Tags, tag) {
			return true
		}
	}
	return false
}
