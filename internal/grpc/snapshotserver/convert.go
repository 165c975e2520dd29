package snapshotserver

import (
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
)

func position(row, col int) map[string]interface{} {
	return map[string]interface{}{"row": row, "col": col}
}

func pair(v [2]int) []interface{} {
	return []interface{}{v[0], v[1]}
}

// SnapshotToStruct converts a snapshot into a protobuf Struct. The board is
// encoded as one string per row using '#' for walls and '.' for open cells.
func SnapshotToStruct(s game.Snapshot, info StepInfo) (*structpb.Struct, error) {
	units := make([]interface{}, 0, len(s.Units))
	for _, u := range s.Units {
		units = append(units, map[string]interface{}{
			"name":       u.Name,
			"team":       int(u.Team),
			"position":   position(u.Position.Row, u.Position.Col),
			"has_flag":   u.HasFlag,
			"jail_timer": u.JailTimer,
		})
	}

	flags := make([]interface{}, 0, len(s.Flags))
	for _, f := range s.Flags {
		flags = append(flags, map[string]interface{}{
			"team":     int(f.Team),
			"position": position(f.Position.Row, f.Position.Col),
			"grounded": f.Grounded,
		})
	}

	var rows []interface{}
	if s.Board != nil {
		for _, row := range strings.Split(s.Board.String(), "\n") {
			rows = append(rows, row)
		}
	}

	return structpb.NewStruct(map[string]interface{}{
		"game_id":   s.GameID,
		"turn":      s.Turn,
		"episode":   s.Episode,
		"score":     pair(s.Score),
		"captures":  pair(s.Captures),
		"board":     rows,
		"units":     units,
		"flags":     flags,
		"step":      info.Step,
		"mean_cost": info.MeanCost,
	})
}
