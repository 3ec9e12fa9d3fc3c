package leibniz

import (
	"fmt"
	"iter"
	"slices"
)

// Job describes the sub-range [Start, Start+Length) of the series indices
// assigned to a single worker.
type Job struct {
	Start  int64
	Length int64
}

// End returns the exclusive upper bound of the job range.
func (j Job) End() int64 { return j.Start + j.Length }

// String implements fmt.Stringer.
func (j Job) String() string {
	return fmt.Sprintf("[%d, %d)", j.Start, j.End())
}

// checkSplitArgs panics on arguments that cannot produce a partition.
// Callers are expected to validate user input beforehand (see Options.Validate).
func checkSplitArgs(totalLength int64, workerCount int) {
	if totalLength <= 0 {
		panic(fmt.Sprintf("leibniz: totalLength must be positive, got %d", totalLength))
	}
	if workerCount <= 0 {
		panic(fmt.Sprintf("leibniz: workerCount must be positive, got %d", workerCount))
	}
}

// Jobs lazily yields the partition of [0, totalLength) into workerCount
// contiguous jobs, in ascending order of Start. Every job but the last has
// length totalLength/workerCount; the last one absorbs the remainder. When
// workerCount > totalLength the leading jobs are empty and the last job
// covers the whole range.
//
// Jobs panics if totalLength <= 0 or workerCount <= 0.
func Jobs(totalLength int64, workerCount int) iter.Seq[Job] {
	checkSplitArgs(totalLength, workerCount)
	batch := totalLength / int64(workerCount)
	last := int64(workerCount - 1)

	return func(yield func(Job) bool) {
		for i := int64(0); i < last; i++ {
			if !yield(Job{Start: i * batch, Length: batch}) {
				return
			}
		}
		start := last * batch
		yield(Job{Start: start, Length: totalLength - start})
	}
}

// Split eagerly partitions [0, totalLength) into exactly workerCount jobs.
// See Jobs for the layout and the preconditions.
func Split(totalLength int64, workerCount int) []Job {
	return slices.Collect(Jobs(totalLength, workerCount))
}
