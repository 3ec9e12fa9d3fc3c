// Package progress defines the progress value exchanged between the
// accumulator and the presentation layers.
package progress

// ProgressUpdate reports how many partial sums the accumulator has received.
type ProgressUpdate struct {
	// Received is the number of partial sums added so far.
	Received int
	// Expected is the number of partial sums the run waits for.
	Expected int
}

// Fraction returns Received/Expected in [0, 1]. It returns 0 when Expected
// is not positive.
func (u ProgressUpdate) Fraction() float64 {
	if u.Expected <= 0 {
		return 0
	}
	f := float64(u.Received) / float64(u.Expected)
	if f > 1 {
		return 1
	}
	return f
}

// Done reports whether every expected partial sum was received.
func (u ProgressUpdate) Done() bool {
	return u.Expected > 0 && u.Received >= u.Expected
}
