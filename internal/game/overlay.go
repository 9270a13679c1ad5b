package game

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Overlay formats the debug text shown in the top-left corner.
func (s *Session) Overlay(feet mgl32.Vec3, fps int) []string {
	st := s.Sched.Stats()
	c := s.Sched.ObserverChunk()
	lines := []string{
		fmt.Sprintf("FPS: %d", fps),
		fmt.Sprintf("Pos: %.2f, %.2f, %.2f | Chunk: %d, %d, %d", feet.X(), feet.Y(), feet.Z(), c.X, c.Y, c.Z),
		fmt.Sprintf("Chunks: %d resident, %d meshed, %d dirty | Queue: %d gen, %d mesh, %d upload",
			st.Resident, st.Meshed, st.Dirty, st.Generating, st.Meshing, st.Uploads),
	}

	if hit := s.Aim(); hit.Hit {
		lines = append(lines, fmt.Sprintf("Target: %s at %d, %d, %d (%.1fm)",
			s.Blocks.Name(hit.ID), hit.Block[0], hit.Block[1], hit.Block[2], hit.Distance))
	}

	h := s.Edit.Hotbar()
	slots := make([]string, len(h.Slots))
	for i, id := range h.Slots {
		name := s.Blocks.Name(id)
		if i == h.Current {
			name = "[" + name + "]"
		}
		slots[i] = name
	}
	lines = append(lines, "Hotbar: "+strings.Join(slots, " "))

	if top := s.Prof.TopN(5); top != "" {
		lines = append(lines, top)
	}
	return lines
}
