package game

import "math"

// Grid holds the owner of every territory cell, indexed [row][col].
// 0 means unclaimed.
type Grid struct {
	CellSize float64    `json:"cell_size"`
	Cols     int        `json:"cols"`
	Rows     int        `json:"rows"`
	Cells    [][]Player `json:"cells"`
}

// AreaScore is the territory contribution for each player.
type AreaScore struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// ComputeGrid assigns every cell to the player whose nearest puck is
// strictly closer to the cell center. Ties and empty sides stay unclaimed.
func ComputeGrid(pucks []*Puck, s Settings) *Grid {
	cols := int(math.Ceil(s.BoardWidth / s.GridSize))
	rows := int(math.Ceil(s.BoardHeight / s.GridSize))
	g := &Grid{
		CellSize: s.GridSize,
		Cols:     cols,
		Rows:     rows,
		Cells:    make([][]Player, rows),
	}

	for r := 0; r < rows; r++ {
		g.Cells[r] = make([]Player, cols)
		cy := (float64(r) + 0.5) * s.GridSize
		for c := 0; c < cols; c++ {
			center := Vec2{X: (float64(c) + 0.5) * s.GridSize, Y: cy}
			g.Cells[r][c] = nearestOwner(center, pucks)
		}
	}
	return g
}

func nearestOwner(pt Vec2, pucks []*Puck) Player {
	d1, d2 := math.Inf(1), math.Inf(1)
	for _, p := range pucks {
		d := pt.DistanceSquaredTo(p.Position)
		switch p.Player {
		case Player1:
			d1 = math.Min(d1, d)
		case Player2:
			d2 = math.Min(d2, d)
		}
	}
	switch {
	case d1 < d2:
		return Player1
	case d2 < d1:
		return Player2
	}
	return NoPlayer
}

// OwnerAt returns the owner of the cell containing (x, y). Points outside
// the board clamp to the nearest edge cell.
func (g *Grid) OwnerAt(x, y float64) Player {
	if g == nil || g.Rows == 0 || g.Cols == 0 {
		return NoPlayer
	}
	col := int(math.Floor(x / g.CellSize))
	row := int(math.Floor(y / g.CellSize))
	col = int(clamp(float64(col), 0, float64(g.Cols-1)))
	row = int(clamp(float64(row), 0, float64(g.Rows-1)))
	return g.Cells[row][col]
}

// CellCounts returns the number of cells each player owns.
func (g *Grid) CellCounts() (p1, p2 int) {
	for _, row := range g.Cells {
		for _, owner := range row {
			switch owner {
			case Player1:
				p1++
			case Player2:
				p2++
			}
		}
	}
	return p1, p2
}

// ComputeAreaScore converts owned cells into points.
func ComputeAreaScore(g *Grid, scorePerArea float64) AreaScore {
	p1, p2 := g.CellCounts()
	return AreaScore{
		Player1: int(math.Floor(float64(p1) * scorePerArea)),
		Player2: int(math.Floor(float64(p2) * scorePerArea)),
	}
}
