package leibniz

import "context"

// CancelCheckInterval is the number of series terms summed between two
// context checks in PartialSumContext.
const CancelCheckInterval = 1 << 20

// Term returns the n-th term of the series, 4 * (-1)^n / (2n+1).
// The sign is taken from the parity of n.
func Term(n int64) float64 {
	t := 4.0 / float64(2*n+1)
	if n&1 == 1 {
		return -t
	}
	return t
}

// PartialSum returns the sum of the series terms over the job range.
// An empty job sums to 0.
func PartialSum(job Job) float64 {
	var sum float64
	for n, end := job.Start, job.End(); n < end; n++ {
		sum += Term(n)
	}
	return sum
}

// PartialSumContext is PartialSum with a context check every
// CancelCheckInterval terms. It returns the context error if the context is
// done before the sum completes.
func PartialSumContext(ctx context.Context, job Job) (float64, error) {
	var sum float64
	end := job.End()
	for lo := job.Start; lo < end; lo += CancelCheckInterval {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		hi := min(lo+CancelCheckInterval, end)
		sum += PartialSum(Job{Start: lo, Length: hi - lo})
	}
	return sum, nil
}
