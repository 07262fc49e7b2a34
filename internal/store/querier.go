package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
)

// sceneColumns lists the stac_item columns scanned into a Scene, in scan order.
const sceneColumns = "`id`, `collection`, `datetime`, `path`, `row`, `satellite`, `sensor`, " +
	"`cloud_cover`, `sync_loss`, `deleted`, `thumbnail`, " +
	"`tl_longitude`, `tl_latitude`, `bl_longitude`, `bl_latitude`, " +
	"`br_longitude`, `br_latitude`, `tr_longitude`, `tr_latitude`, `assets`"

// SearchScenes runs the count query and the paginated data query for the
// given filter. Both queries share the filter's WHERE body and arguments.
//
// Multi-collection filters are windowed per collection group before being
// re-merged, so each collection contributes up to Limit rows for the page.
// Single-scope filters use a plain global offset window. These are separate
// code paths on purpose.
func (s *Store) SearchScenes(ctx context.Context, f *Filter) (*SearchResult, error) {
	result := &SearchResult{}

	counts, matched, err := s.countScenes(ctx, f)
	if err != nil {
		return nil, err
	}
	result.PerCollection = counts
	result.Matched = matched

	var scenes []Scene
	if f.MultiCollection() {
		scenes, err = s.queryPartitioned(ctx, f)
	} else {
		scenes, err = s.queryOffset(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	result.Scenes = scenes

	s.logger.Debug("scene search executed",
		slog.Int("matched", result.Matched),
		slog.Int("returned", len(result.Scenes)),
		slog.Bool("partitioned", f.MultiCollection()),
	)

	return result, nil
}

// countScenes runs the aggregate count grouped by collection. Requested
// collections absent from the real results get synthesized zero-count
// entries, and the breakdown is sorted by collection id.
func (s *Store) countScenes(ctx context.Context, f *Filter) ([]CollectionCount, int, error) {
	query := fmt.Sprintf(
		"SELECT `collection`, COUNT(`id`) AS matched\nFROM stac_item\nWHERE %s\nGROUP BY `collection`",
		f.Where(),
	)

	rows, err := s.db.QueryContext(ctx, query, f.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to run count query: %w", err)
	}
	defer rows.Close()

	var counts []CollectionCount
	matched := 0
	seen := make(map[string]bool)

	for rows.Next() {
		var c CollectionCount
		if err := rows.Scan(&c.Collection, &c.Matched); err != nil {
			return nil, 0, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts = append(counts, c)
		seen[c.Collection] = true
		matched += c.Matched
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("count rows iteration error: %w", err)
	}

	for _, collection := range f.Collections {
		if !seen[collection] {
			counts = append(counts, CollectionCount{Collection: collection, Matched: 0})
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Collection < counts[j].Collection
	})

	return counts, matched, nil
}

// queryOffset pages with a plain global offset window.
func (s *Store) queryOffset(ctx context.Context, f *Filter) ([]Scene, error) {
	query := fmt.Sprintf(
		"SELECT %s\nFROM stac_item\nWHERE %s\nORDER BY `datetime` DESC, `id`\nLIMIT ?, ?",
		sceneColumns, f.Where(),
	)

	args := append(append([]any{}, f.Args...), f.Offset, f.Limit)
	return s.queryScenes(ctx, query, args)
}

// queryPartitioned pages each collection group independently: row numbers are
// assigned per collection and the same (offset, offset+limit] window is
// applied to every group before the groups are re-merged.
func (s *Store) queryPartitioned(ctx context.Context, f *Filter) ([]Scene, error) {
	query := fmt.Sprintf(
		"SELECT %s\nFROM (\n"+
			"    SELECT %s, ROW_NUMBER() OVER (PARTITION BY `collection` ORDER BY `datetime` DESC, `id`) AS rn\n"+
			"    FROM stac_item\n"+
			"    WHERE %s\n"+
			") t\nWHERE rn > ? AND rn <= ?\nORDER BY `collection`, rn",
		sceneColumns, sceneColumns, f.Where(),
	)

	args := append(append([]any{}, f.Args...), f.Offset, f.Offset+f.Limit)
	return s.queryScenes(ctx, query, args)
}

func (s *Store) queryScenes(ctx context.Context, query string, args []any) ([]Scene, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run scene query: %w", err)
	}
	defer rows.Close()

	scenes := make([]Scene, 0)
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, *scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scene rows iteration error: %w", err)
	}

	return scenes, nil
}

func scanScene(rows *sql.Rows) (*Scene, error) {
	var scene Scene
	var rawAssets []byte

	if err := rows.Scan(
		&scene.ID,
		&scene.Collection,
		&scene.Datetime,
		&scene.Path,
		&scene.Row,
		&scene.Satellite,
		&scene.Sensor,
		&scene.CloudCover,
		&scene.SyncLoss,
		&scene.Deleted,
		&scene.Thumbnail,
		&scene.TopLeft.Lon,
		&scene.TopLeft.Lat,
		&scene.BottomLeft.Lon,
		&scene.BottomLeft.Lat,
		&scene.BottomRight.Lon,
		&scene.BottomRight.Lat,
		&scene.TopRight.Lon,
		&scene.TopRight.Lat,
		&rawAssets,
	); err != nil {
		return nil, fmt.Errorf("failed to scan scene row: %w", err)
	}

	assets, err := decodeAssets(rawAssets)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", scene.ID, err)
	}
	scene.Assets = assets

	return &scene, nil
}

// collectionColumns lists the collection listing columns, in scan order.
const collectionColumns = "sc.`id`, sc.`description`, sc.`min_x`, sc.`min_y`, sc.`max_x`, sc.`max_y`, " +
	"sc.`start_date`, sc.`end_date`, COALESCE(si.`assets`, '[]')"

const collectionJoin = "FROM stac_collection sc\n" +
	"LEFT JOIN (\n" +
	"    SELECT `collection`, `assets`\n" +
	"    FROM stac_item\n" +
	"    GROUP BY `collection`\n" +
	") si ON sc.`id` = si.`collection`"

// Collections returns every collection with its aggregated band metadata.
func (s *Store) Collections(ctx context.Context) ([]CollectionRecord, error) {
	query := fmt.Sprintf("SELECT %s\n%s\nORDER BY sc.`id`", collectionColumns, collectionJoin)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run collections query: %w", err)
	}
	defer rows.Close()

	records := make([]CollectionRecord, 0)
	for rows.Next() {
		rec, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collection rows iteration error: %w", err)
	}

	return records, nil
}

// Collection returns one collection by id, or nil when it does not exist.
func (s *Store) Collection(ctx context.Context, id string) (*CollectionRecord, error) {
	query := fmt.Sprintf("SELECT %s\n%s\nWHERE sc.`id` = ?", collectionColumns, collectionJoin)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to run collection query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("collection rows iteration error: %w", err)
		}
		return nil, nil
	}

	return scanCollection(rows)
}

func scanCollection(rows *sql.Rows) (*CollectionRecord, error) {
	var rec CollectionRecord
	var rawAssets []byte

	if err := rows.Scan(
		&rec.ID,
		&rec.Description,
		&rec.MinLon,
		&rec.MinLat,
		&rec.MaxLon,
		&rec.MaxLat,
		&rec.StartDate,
		&rec.EndDate,
		&rawAssets,
	); err != nil {
		return nil, fmt.Errorf("failed to scan collection row: %w", err)
	}

	assets, err := decodeAssets(rawAssets)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", rec.ID, err)
	}
	rec.Assets = assets

	return &rec, nil
}
