package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arvenwood/loomfall/internal/storage"
	"github.com/arvenwood/loomfall/internal/world"
)

// PutWorld upserts one world record.
func (s *Store) PutWorld(ctx context.Context, record world.World) error {
	if err := record.Validate(); err != nil {
		return err
	}
	_, err := s.db().ExecContext(ctx, `
INSERT INTO worlds (id, name, seed, width, height, environment, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    environment = excluded.environment,
    updated_at = excluded.updated_at`,
		record.ID, record.Name, record.Seed, record.Width, record.Height,
		record.Environment, toMillis(record.CreatedAt), toMillis(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put world: %w", err)
	}
	return nil
}

// GetWorld loads one world record.
func (s *Store) GetWorld(ctx context.Context, worldID string) (world.World, error) {
	row := s.db().QueryRowContext(ctx, `
SELECT id, name, seed, width, height, environment, created_at, updated_at
FROM worlds WHERE id = ?`, worldID)

	var record world.World
	var createdAt, updatedAt int64
	err := row.Scan(&record.ID, &record.Name, &record.Seed, &record.Width,
		&record.Height, &record.Environment, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return world.World{}, storage.ErrNotFound
	}
	if err != nil {
		return world.World{}, fmt.Errorf("get world: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if err := record.Validate(); err != nil {
		return world.World{}, err
	}
	return record, nil
}

// PutTiles replaces the tiles for a world in one transaction.
func (s *Store) PutTiles(ctx context.Context, worldID string, tiles []world.Tile) error {
	for _, tile := range tiles {
		if err := tile.Validate(); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx dbtx) error {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tiles (world_id, x, y, biome, elevation, moisture, temperature)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(world_id, x, y) DO UPDATE SET
    biome = excluded.biome,
    elevation = excluded.elevation,
    moisture = excluded.moisture,
    temperature = excluded.temperature`)
		if err != nil {
			return fmt.Errorf("prepare tile upsert: %w", err)
		}
		defer stmt.Close()
		for _, tile := range tiles {
			if _, err := stmt.ExecContext(ctx, worldID, tile.X, tile.Y,
				string(tile.Biome), tile.Elevation, tile.Moisture, tile.Temperature); err != nil {
				return fmt.Errorf("put tile (%d,%d): %w", tile.X, tile.Y, err)
			}
		}
		return nil
	})
}

// GetTiles loads a world's tiles in row-major order.
func (s *Store) GetTiles(ctx context.Context, worldID string) ([]world.Tile, error) {
	rows, err := s.db().QueryContext(ctx, `
SELECT world_id, x, y, biome, elevation, moisture, temperature
FROM tiles WHERE world_id = ? ORDER BY y, x`, worldID)
	if err != nil {
		return nil, fmt.Errorf("get tiles: %w", err)
	}
	defer rows.Close()

	var tiles []world.Tile
	for rows.Next() {
		var tile world.Tile
		var biome string
		if err := rows.Scan(&tile.WorldID, &tile.X, &tile.Y, &biome,
			&tile.Elevation, &tile.Moisture, &tile.Temperature); err != nil {
			return nil, fmt.Errorf("scan tile: %w", err)
		}
		tile.Biome = world.Biome(biome)
		if err := tile.Validate(); err != nil {
			return nil, err
		}
		tiles = append(tiles, tile)
	}
	return tiles, rows.Err()
}

// PutRegions replaces a world's regions.
func (s *Store) PutRegions(ctx context.Context, worldID string, regions []world.Region) error {
	for _, region := range regions {
		if err := region.Validate(); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx dbtx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM regions WHERE world_id = ?`, worldID); err != nil {
			return fmt.Errorf("clear regions: %w", err)
		}
		for _, region := range regions {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO regions (id, world_id, name, type, center_x, center_y, color)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
				region.ID, worldID, region.Name, string(region.Type),
				region.CenterX, region.CenterY, region.Color); err != nil {
				return fmt.Errorf("put region %s: %w", region.ID, err)
			}
		}
		return nil
	})
}

// GetRegions loads a world's regions.
func (s *Store) GetRegions(ctx context.Context, worldID string) ([]world.Region, error) {
	rows, err := s.db().QueryContext(ctx, `
SELECT id, world_id, name, type, center_x, center_y, color
FROM regions WHERE world_id = ? ORDER BY id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("get regions: %w", err)
	}
	defer rows.Close()

	var regions []world.Region
	for rows.Next() {
		var region world.Region
		var regionType string
		if err := rows.Scan(&region.ID, &region.WorldID, &region.Name,
			&regionType, &region.CenterX, &region.CenterY, &region.Color); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		region.Type = world.RegionType(regionType)
		if err := region.Validate(); err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

// PutRiverSegments replaces a world's river segments.
func (s *Store) PutRiverSegments(ctx context.Context, worldID string, segments []world.RiverSegment) error {
	return s.withTx(ctx, func(tx dbtx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM river_segments WHERE world_id = ?`, worldID); err != nil {
			return fmt.Errorf("clear river segments: %w", err)
		}
		for _, segment := range segments {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO river_segments (world_id, from_x, from_y, to_x, to_y, flux)
VALUES (?, ?, ?, ?, ?, ?)`,
				worldID, segment.FromX, segment.FromY, segment.ToX, segment.ToY, segment.Flux); err != nil {
				return fmt.Errorf("put river segment (%d,%d): %w", segment.FromX, segment.FromY, err)
			}
		}
		return nil
	})
}

// GetRiverSegments loads a world's river segments.
func (s *Store) GetRiverSegments(ctx context.Context, worldID string) ([]world.RiverSegment, error) {
	rows, err := s.db().QueryContext(ctx, `
SELECT world_id, from_x, from_y, to_x, to_y, flux
FROM river_segments WHERE world_id = ? ORDER BY from_y, from_x`, worldID)
	if err != nil {
		return nil, fmt.Errorf("get river segments: %w", err)
	}
	defer rows.Close()

	var segments []world.RiverSegment
	for rows.Next() {
		var segment world.RiverSegment
		if err := rows.Scan(&segment.WorldID, &segment.FromX, &segment.FromY,
			&segment.ToX, &segment.ToY, &segment.Flux); err != nil {
			return nil, fmt.Errorf("scan river segment: %w", err)
		}
		segments = append(segments, segment)
	}
	return segments, rows.Err()
}

// PutStructures upserts structures for a world.
func (s *Store) PutStructures(ctx context.Context, worldID string, structures []world.Structure) error {
	for _, structure := range structures {
		if err := structure.Validate(); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx dbtx) error {
		for _, structure := range structures {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO structures (id, world_id, type, x, y, name, population)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    x = excluded.x,
    y = excluded.y,
    name = excluded.name,
    population = excluded.population`,
				structure.ID, worldID, string(structure.Type), structure.X,
				structure.Y, structure.Name, structure.Population); err != nil {
				return fmt.Errorf("put structure %s: %w", structure.ID, err)
			}
		}
		return nil
	})
}

// GetStructures loads a world's structures.
func (s *Store) GetStructures(ctx context.Context, worldID string) ([]world.Structure, error) {
	rows, err := s.db().QueryContext(ctx, `
SELECT id, world_id, type, x, y, name, population
FROM structures WHERE world_id = ? ORDER BY id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("get structures: %w", err)
	}
	defer rows.Close()

	var structures []world.Structure
	for rows.Next() {
		var structure world.Structure
		var structureType string
		if err := rows.Scan(&structure.ID, &structure.WorldID, &structureType,
			&structure.X, &structure.Y, &structure.Name, &structure.Population); err != nil {
			return nil, fmt.Errorf("scan structure: %w", err)
		}
		structure.Type = world.StructureType(structureType)
		if err := structure.Validate(); err != nil {
			return nil, err
		}
		structures = append(structures, structure)
	}
	return structures, rows.Err()
}

// PutRoads appends road records.
func (s *Store) PutRoads(ctx context.Context, worldID string, roads []world.Road) error {
	return s.withTx(ctx, func(tx dbtx) error {
		for _, road := range roads {
			pathJSON, err := json.Marshal(road.Path)
			if err != nil {
				return fmt.Errorf("encode road path: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO roads (id, world_id, path_json) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET path_json = excluded.path_json`,
				road.ID, worldID, string(pathJSON)); err != nil {
				return fmt.Errorf("put road %s: %w", road.ID, err)
			}
		}
		return nil
	})
}

// GetRoads loads a world's roads.
func (s *Store) GetRoads(ctx context.Context, worldID string) ([]world.Road, error) {
	rows, err := s.db().QueryContext(ctx, `
SELECT id, world_id, path_json FROM roads WHERE world_id = ? ORDER BY id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("get roads: %w", err)
	}
	defer rows.Close()

	var roads []world.Road
	for rows.Next() {
		var road world.Road
		var pathJSON string
		if err := rows.Scan(&road.ID, &road.WorldID, &pathJSON); err != nil {
			return nil, fmt.Errorf("scan road: %w", err)
		}
		if err := json.Unmarshal([]byte(pathJSON), &road.Path); err != nil {
			return nil, fmt.Errorf("decode road path: %w", err)
		}
		roads = append(roads, road)
	}
	return roads, rows.Err()
}

// PutAnnotations appends annotation records.
func (s *Store) PutAnnotations(ctx context.Context, worldID string, annotations []world.Annotation) error {
	return s.withTx(ctx, func(tx dbtx) error {
		for _, annotation := range annotations {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO annotations (id, world_id, x, y, label, note) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    x = excluded.x, y = excluded.y, label = excluded.label, note = excluded.note`,
				annotation.ID, worldID, annotation.X, annotation.Y,
				annotation.Label, annotation.Note); err != nil {
				return fmt.Errorf("put annotation %s: %w", annotation.ID, err)
			}
		}
		return nil
	})
}

// GetAnnotations loads a world's annotations.
func (s *Store) GetAnnotations(ctx context.Context, worldID string) ([]world.Annotation, error) {
	rows, err := s.db().QueryContext(ctx, `
SELECT id, world_id, x, y, label, note FROM annotations WHERE world_id = ? ORDER BY id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("get annotations: %w", err)
	}
	defer rows.Close()

	var annotations []world.Annotation
	for rows.Next() {
		var annotation world.Annotation
		if err := rows.Scan(&annotation.ID, &annotation.WorldID, &annotation.X,
			&annotation.Y, &annotation.Label, &annotation.Note); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		annotations = append(annotations, annotation)
	}
	return annotations, rows.Err()
}
