package behavior

import "math"

func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func sqrtf32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
