package registry

import (
	"testing"

	"voxelstream/internal/world"
)

func TestDefaultCoversEveryBlock(t *testing.T) {
	r := Default()
	for id := world.BlockAir; id < world.BlockCount; id++ {
		if r.Get(id) == nil {
			t.Errorf("block %d has no definition", id)
		}
	}
	if got := len(r.Names()); got != int(world.BlockCount) {
		t.Errorf("Expected %d names, got %d", world.BlockCount, got)
	}
}

func TestLookup(t *testing.T) {
	r := Default()
	id, ok := r.ByName("oak")
	if !ok || id != world.BlockOak {
		t.Fatalf("ByName(oak) = %d, %v", id, ok)
	}
	if !r.IsOriented(world.BlockOak) || r.IsOriented(world.BlockStone) {
		t.Errorf("Only oak should be oriented")
	}
	if r.Name(world.BlockDarkGoldOre) != "dark_gold_ore" {
		t.Errorf("Unexpected name %q", r.Name(world.BlockDarkGoldOre))
	}
	if r.Name(200) != "unknown" {
		t.Errorf("Expected unknown for an unregistered id")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	if err := r.RegisterBlock(BlockDefinition{ID: world.BlockDirt, Name: "dirt"}); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterBlock(BlockDefinition{ID: world.BlockDirt, Name: "dirt2"}); err == nil {
		t.Errorf("Expected duplicate id to be rejected")
	}
	if err := r.RegisterBlock(BlockDefinition{ID: world.BlockSand, Name: "dirt"}); err == nil {
		t.Errorf("Expected duplicate name to be rejected")
	}
	if err := r.RegisterBlock(BlockDefinition{ID: world.BlockCount, Name: "bogus"}); err == nil {
		t.Errorf("Expected invalid id to be rejected")
	}
}
