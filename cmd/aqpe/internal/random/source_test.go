// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package random

import (
	"math"
	"testing"
)

func TestNew_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		if a.Uniform01() != b.Uniform01() {
			t.Fatalf("uniform draw %d diverged for the same seed", i)
		}
		if a.Gaussian(1) != b.Gaussian(1) {
			t.Fatalf("gaussian draw %d diverged for the same seed", i)
		}
	}
}

func TestNew_SeedsDiffer(t *testing.T) {
	a := New(1)
	b := New(2)

	same := 0
	for i := 0; i < 10; i++ {
		if a.Uniform01() == b.Uniform01() {
			same++
		}
	}
	if same == 10 {
		t.Error("different seeds produced identical draw sequences")
	}
}

func TestGenerator_Seed(t *testing.T) {
	if got := New(7).Seed(); got != 7 {
		t.Errorf("Seed() = %d, want 7", got)
	}
}

func TestNewTimeSeeded(t *testing.T) {
	g := NewTimeSeeded()
	if g == nil {
		t.Fatal("NewTimeSeeded() returned nil")
	}
	if g.Seed() == 0 {
		t.Error("time-derived seed should be non-zero")
	}
}

func TestUniform01_Range(t *testing.T) {
	g := New(11)
	for i := 0; i < 10000; i++ {
		v := g.Uniform01()
		if v < 0 || v >= 1 {
			t.Fatalf("Uniform01() = %v, outside [0, 1)", v)
		}
	}
}

func TestGaussian_ZeroSigma(t *testing.T) {
	g := New(3)
	for i := 0; i < 100; i++ {
		if v := g.Gaussian(0); v != 0 {
			t.Fatalf("Gaussian(0) = %v, want exactly 0", v)
		}
	}
}

func TestGaussian_Moments(t *testing.T) {
	g := New(13)
	n := 50000
	var sum, sumSquare float64
	for i := 0; i < n; i++ {
		v := g.Gaussian(2)
		sum += v
		sumSquare += v * v
	}

	mean := sum / float64(n)
	std := math.Sqrt(sumSquare/float64(n) - mean*mean)
	if math.Abs(mean) > 0.05 {
		t.Errorf("sample mean = %v, want ~0", mean)
	}
	if math.Abs(std-2) > 0.05 {
		t.Errorf("sample std = %v, want ~2", std)
	}
}

func TestSpawn_ReproducibleAndIndependent(t *testing.T) {
	parent := New(99)

	childA := parent.Spawn(0)
	childB := parent.Spawn(1)
	childA2 := New(99).Spawn(0)

	var seqA, seqB, seqA2 [20]float64
	for i := range seqA {
		seqA[i] = childA.Uniform01()
		seqB[i] = childB.Uniform01()
		seqA2[i] = childA2.Uniform01()
	}

	if seqA != seqA2 {
		t.Error("same worker stream from the same seed should be reproducible")
	}
	if seqA == seqB {
		t.Error("different worker streams produced identical sequences")
	}

	if childA.Seed() != parent.Seed() {
		t.Errorf("child seed = %d, want parent seed %d", childA.Seed(), parent.Seed())
	}
}
