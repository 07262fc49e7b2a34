package translate

import (
	"sort"

	"github.com/inpe-cdsr/stac-api/internal/stac"
	"github.com/inpe-cdsr/stac-api/internal/store"
)

// AssembleFeatureCollection wraps projected features into a
// FeatureCollection with context metadata. Meta stays null unless the
// search spanned multiple collections, in which case it carries the
// per-collection breakdown sorted by collection id. Identifier search
// discards the collection scope, so it never carries a breakdown. The
// context extension identifier is appended exactly once.
func (p *Projector) AssembleFeatureCollection(features []*stac.Feature, req *stac.SearchRequest, result *store.SearchResult) *stac.FeatureCollection {
	fc := stac.NewFeatureCollection(features, p.cfg.STAC.Version)

	appendExtensionOnce(fc, stac.ExtensionContext)
	if len(req.Query) > 0 {
		appendExtensionOnce(fc, stac.ExtensionQuery)
	}

	var meta []stac.CollectionMeta
	if len(req.IDs) == 0 && req.MultiCollection() {
		meta = collectionBreakdown(features, req, result.PerCollection)
	}

	fc.Context = &stac.Context{
		Page:     req.Page,
		Limit:    req.Limit,
		Matched:  result.Matched,
		Returned: len(fc.Features),
		Meta:     meta,
	}

	return fc
}

func appendExtensionOnce(fc *stac.FeatureCollection, ext string) {
	for _, existing := range fc.StacExtensions {
		if existing == ext {
			return
		}
	}
	fc.StacExtensions = append(fc.StacExtensions, ext)
}

// collectionBreakdown builds the per-collection meta entries. Every
// requested collection appears, with matched=0 when no rows matched.
func collectionBreakdown(features []*stac.Feature, req *stac.SearchRequest, counts []store.CollectionCount) []stac.CollectionMeta {
	returned := make(map[string]int)
	for _, f := range features {
		returned[f.Collection]++
	}

	meta := make([]stac.CollectionMeta, 0, len(counts))
	for _, c := range counts {
		meta = append(meta, stac.CollectionMeta{
			Name: c.Collection,
			Context: stac.PageContext{
				Page:     req.Page,
				Limit:    req.Limit,
				Matched:  c.Matched,
				Returned: returned[c.Collection],
			},
		})
	}

	sort.Slice(meta, func(i, j int) bool {
		return meta[i].Name < meta[j].Name
	})

	return meta
}
