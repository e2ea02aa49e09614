// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolve

import "fmt"

// Broadcast maps numbers onto n indices. A single number repeats across
// every index, a series of exactly n numbers maps one to one, and anything
// else is rejected. A longer series is never folded onto a shorter level.
func Broadcast(numbers []float64, n int) ([]float64, error) {
	switch len(numbers) {
	case n:
		out := make([]float64, n)
		copy(out, numbers)
		return out, nil
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = numbers[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %d values for %d indices", ErrBroadcast, len(numbers), n)
}
