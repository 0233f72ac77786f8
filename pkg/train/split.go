package train

import (
	"math/rand"
	"sort"
)

// Split returns shuffled train/test index sets. Both partitions are
// guaranteed non-empty for n >= 2.
func Split(n int, testSize float64, seed int64) (trainIdx, testIdx []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testSize)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// StratifiedSplit splits per class so the test partition preserves
// class proportions. Singleton classes stay in the training partition.
func StratifiedSplit(y []int, testSize float64, seed int64) (trainIdx, testIdx []int) {
	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nTest := int(float64(len(rows)) * testSize)
		if nTest >= len(rows) {
			nTest = len(rows) - 1
		}
		testIdx = append(testIdx, rows[:nTest]...)
		trainIdx = append(trainIdx, rows[nTest:]...)
	}
	return trainIdx, testIdx
}
