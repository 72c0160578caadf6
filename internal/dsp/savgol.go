package dsp

// savgolCoeffs are the 5-point quadratic Savitzky-Golay smoothing weights
var savgolCoeffs = [5]float64{-3.0 / 35, 12.0 / 35, 17.0 / 35, 12.0 / 35, -3.0 / 35}

// SavitzkyGolay smooths a row with a window of 5 and polynomial order 2.
// The first and last two samples are taken from a quadratic fitted to the
// first and last five samples. Rows shorter than 5 are returned unchanged.
func SavitzkyGolay(row []float64) []float64 {
	n := len(row)
	out := make([]float64, n)
	copy(out, row)
	if n < 5 {
		return out
	}

	for i := 2; i < n-2; i++ {
		var acc float64
		for j, c := range savgolCoeffs {
			acc += c * row[i-2+j]
		}
		out[i] = acc
	}

	a, b, c := quadFit5(row[:5])
	out[0] = a
	out[1] = a + b + c

	a, b, c = quadFit5(row[n-5:])
	out[n-2] = a + 3*b + 9*c
	out[n-1] = a + 4*b + 16*c
	return out
}

// quadFit5 returns the least squares coefficients of a + b*t + c*t^2 through
// five samples at t = 0..4.
func quadFit5(y []float64) (a, b, c float64) {
	// Centered at t = 2 the normal equations decouple.
	var s0, s1, s2 float64
	for i, v := range y {
		u := float64(i - 2)
		s0 += v
		s1 += u * v
		s2 += u * u * v
	}
	// y ~ p + q*u + r*u^2 with sum(u^2)=10, sum(u^4)=34, n=5
	r := (5*s2 - 10*s0) / (5*34 - 10*10)
	p := (s0 - 10*r) / 5
	q := s1 / 10

	// Re-express around t = u + 2.
	a = p - 2*q + 4*r
	b = q - 4*r
	c = r
	return a, b, c
}
