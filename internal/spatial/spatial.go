// Package spatial locates flag stands on the tile grid and converts splat
// records into positioned deaths.
package spatial

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/pable/go-ctf-metrics/internal/model"
	"github.com/pable/go-ctf-metrics/internal/timeline"
)

// Tile values and geometry.
const (
	TileRedFlag  = 30
	TileBlueFlag = 40
	TileSize     = 40.0

	// BaseRadiusTiles is how far from a flag stand a death still counts as "in base".
	BaseRadiusTiles = 5.5
)

// ErrMapGeometry is returned when the tile grid does not describe exactly one
// stand per team.
var ErrMapGeometry = errors.New("map geometry")

// MapGeometryError describes which stand could not be located.
type MapGeometryError struct {
	Team  model.Team
	Found int
}

func (e *MapGeometryError) Error() string {
	if e.Found == 0 {
		return fmt.Sprintf("%s: no %s flag stand tile", ErrMapGeometry, e.Team)
	}
	return fmt.Sprintf("%s: %d %s flag stand tiles, expected 1", ErrMapGeometry, e.Found, e.Team)
}

func (e *MapGeometryError) Unwrap() error { return ErrMapGeometry }

// tileCenter returns the world-space center of the tile at (row, col).
func tileCenter(row, col int) model.Point {
	return model.Point{
		X: float64(col+1)*TileSize - 0.5*TileSize,
		Y: float64(row+1)*TileSize - 0.5*TileSize,
	}
}

// LocateFlagStands scans the grid for both stand tiles. When strict is true a
// grid with more than one stand tile for a team is rejected; otherwise the
// last one scanned wins.
func LocateFlagStands(tiles [][]int, strict bool) (model.FlagStands, error) {
	var stands model.FlagStands
	var redCount, blueCount int
	for row := range tiles {
		for col, v := range tiles[row] {
			switch v {
			case TileRedFlag:
				stands.Red = tileCenter(row, col)
				redCount++
			case TileBlueFlag:
				stands.Blue = tileCenter(row, col)
				blueCount++
			}
		}
	}

	if redCount == 0 {
		return model.FlagStands{}, &MapGeometryError{Team: model.TeamRed}
	}
	if blueCount == 0 {
		return model.FlagStands{}, &MapGeometryError{Team: model.TeamBlue}
	}
	if strict && redCount > 1 {
		return model.FlagStands{}, &MapGeometryError{Team: model.TeamRed, Found: redCount}
	}
	if strict && blueCount > 1 {
		return model.FlagStands{}, &MapGeometryError{Team: model.TeamBlue, Found: blueCount}
	}
	return stands, nil
}

// CollectSplats converts raw splats to seconds and resolves their team.
func CollectSplats(raw []model.RawSplat, names model.TeamNames) ([]model.Splat, error) {
	out := make([]model.Splat, 0, len(raw))
	for _, s := range raw {
		t, err := timeline.ParseClock(s.Clock)
		if err != nil {
			return nil, fmt.Errorf("splat of %s: %w", s.Player, err)
		}
		out = append(out, model.Splat{
			Time:   t,
			Pos:    model.Point{X: s.X, Y: s.Y},
			Player: s.Player,
			Team:   names.Resolve(s.Team),
		})
	}
	return out, nil
}

// Distance is the Euclidean distance between a and b in world units.
func Distance(a, b model.Point) float64 {
	return r2.Point{X: a.X, Y: a.Y}.Sub(r2.Point{X: b.X, Y: b.Y}).Norm()
}

// InBase reports whether p lies within BaseRadiusTiles of stand, boundary inclusive.
func InBase(p, stand model.Point) bool {
	return Distance(p, stand) <= BaseRadiusTiles*TileSize
}
