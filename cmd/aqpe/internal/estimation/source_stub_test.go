// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package estimation

// scriptedSource replays fixed draw sequences so tests can steer every
// accept/reject decision. Sequences cycle when exhausted. The sigma passed
// to Gaussian is ignored; scripts encode final values.
type scriptedSource struct {
	uniforms  []float64
	gaussians []float64
	ui, gi    int
}

func (s *scriptedSource) Uniform01() float64 {
	v := s.uniforms[s.ui%len(s.uniforms)]
	s.ui++
	return v
}

func (s *scriptedSource) Gaussian(sigma float64) float64 {
	v := s.gaussians[s.gi%len(s.gaussians)]
	s.gi++
	return v
}
