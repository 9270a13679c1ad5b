package world

import (
	"math/rand"
	"testing"
)

func TestHash3AxesNotInterchangeable(t *testing.T) {
	seed := int64(42)
	if hash3(1, 2, 3, seed) == hash3(3, 2, 1, seed) {
		t.Errorf("hash3 should differ for axis swap")
	}
	if hash3(1, 1, 1, 100) == hash3(1, 1, 1, 200) {
		t.Errorf("hash3 should differ for different seeds")
	}
	if hash3(10, 20, 30, 42) != hash3(10, 20, 30, 42) {
		t.Errorf("hash3 not deterministic")
	}
}

func TestNoiseFieldsInUnitRange(t *testing.T) {
	rng := rand.New(rand.NewSource(12345)) // deterministic test RNG
	n := NewNoise(99)

	for i := 0; i < 500; i++ {
		x := rng.Intn(20000) - 10000
		y := rng.Intn(400) - 200
		z := rng.Intn(20000) - 10000

		if h := n.Height(x, z); h < 0 || h > 1 {
			t.Fatalf("Height(%d,%d) = %f, expected in [0,1]", x, z, h)
		}
		temp, moist := n.Climate(x, z)
		if temp < 0 || temp > 1 || moist < 0 || moist > 1 {
			t.Fatalf("Climate(%d,%d) = (%f,%f), expected in [0,1]", x, z, temp, moist)
		}
		if c := n.Cave3D(x, y, z, 0.05); c < 0 || c > 1 {
			t.Fatalf("Cave3D(%d,%d,%d) = %f, expected in [0,1]", x, y, z, c)
		}
	}
}

func TestClimateFieldsIndependent(t *testing.T) {
	n := NewNoise(7)
	same := 0
	for i := 0; i < 100; i++ {
		temp, moist := n.Climate(i*97, i*-53)
		if temp == moist {
			same++
		}
	}
	if same == 100 {
		t.Errorf("Expected temperature and moisture to be sampled independently")
	}
}

func TestCaveAtDeterministic(t *testing.T) {
	a := NewNoise(5)
	b := NewNoise(5)
	for y := -40; y < 60; y += 3 {
		if a.CaveAt(12, y, -7, 64) != b.CaveAt(12, y, -7, 64) {
			t.Fatalf("CaveAt not deterministic at y=%d", y)
		}
	}
}

func TestOctaveNoise2DContinuity(t *testing.T) {
	v1 := octaveNoise2D(1.0, 1.0, 42, 4, 0.5, 2.0)
	v2 := octaveNoise2D(1.001, 1.0, 42, 4, 0.5, 2.0)
	if d := v1 - v2; d > 0.05 || d < -0.05 {
		t.Errorf("octaveNoise2D not continuous: %f vs %f", v1, v2)
	}
}
