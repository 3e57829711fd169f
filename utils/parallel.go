package utils

import (
	"runtime"
	"sync"
)

// PartitionMap splits a cell range into ParallelDegree contiguous buckets
// for data-parallel sweeps over grid cells.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of each partition
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree <= 0 {
		ParallelDegree = runtime.NumCPU()
	}
	if ParallelDegree > maxIndex {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) Split1D(n int) (bucket [2]int) {
	var (
		size = pm.MaxIndex / pm.ParallelDegree
		rem  = pm.MaxIndex % pm.ParallelDegree
	)
	bucket[0] = n * size
	if n < rem {
		bucket[0] += n
		size++
	} else {
		bucket[0] += rem
	}
	bucket[1] = bucket[0] + size
	return
}

func (pm *PartitionMap) GetBucketRange(n int) (min, max int) {
	min, max = pm.Partitions[n][0], pm.Partitions[n][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(n int) int {
	return pm.Partitions[n][1] - pm.Partitions[n][0]
}

// RunParallel executes f once per partition on its own goroutine and waits
// for all of them. f receives the half-open cell range [min, max).
func (pm *PartitionMap) RunParallel(f func(n, min, max int)) {
	var wg sync.WaitGroup
	for n := 0; n < pm.ParallelDegree; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			min, max := pm.GetBucketRange(n)
			f(n, min, max)
		}(n)
	}
	wg.Wait()
}
