package train

import (
	"math"
	"sort"
)

// ClassificationMetrics returns accuracy plus weighted-average
// precision, recall and F1 over all classes.
func ClassificationMetrics(yTrue, yPred []int, nClasses int) map[string]float64 {
	n := len(yTrue)
	correct := 0
	tp := make([]int, nClasses)
	fp := make([]int, nClasses)
	fn := make([]int, nClasses)
	support := make([]int, nClasses)

	for i := range yTrue {
		support[yTrue[i]]++
		if yTrue[i] == yPred[i] {
			correct++
			tp[yTrue[i]]++
		} else {
			fp[yPred[i]]++
			fn[yTrue[i]]++
		}
	}

	var precision, recall, f1 float64
	for c := 0; c < nClasses; c++ {
		var p, r, f float64
		if tp[c]+fp[c] > 0 {
			p = float64(tp[c]) / float64(tp[c]+fp[c])
		}
		if tp[c]+fn[c] > 0 {
			r = float64(tp[c]) / float64(tp[c]+fn[c])
		}
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		weight := float64(support[c]) / float64(n)
		precision += p * weight
		recall += r * weight
		f1 += f * weight
	}

	return map[string]float64{
		"accuracy":  float64(correct) / float64(n),
		"precision": precision,
		"recall":    recall,
		"f1":        f1,
	}
}

// RocAUC computes the area under the ROC curve for binary labels from
// positive-class scores, via the rank statistic. Tied scores receive
// their midrank. Returns 0 when either class is absent.
func RocAUC(yTrue []int, scores []float64) float64 {
	type scored struct {
		score float64
		pos   bool
	}
	pairs := make([]scored, len(yTrue))
	nPos, nNeg := 0, 0
	for i, y := range yTrue {
		pairs[i] = scored{scores[i], y == 1}
		if y == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].score < pairs[b].score })

	rankSum := 0.0
	for i := 0; i < len(pairs); {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		midrank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if pairs[k].pos {
				rankSum += midrank
			}
		}
		i = j
	}
	return (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
}

// RegressionMetrics returns MAE, MSE, RMSE and R2.
func RegressionMetrics(yTrue, yPred []float64) map[string]float64 {
	n := float64(len(yTrue))
	mae, mse, mean := 0.0, 0.0, 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		mae += math.Abs(d)
		mse += d * d
		mean += yTrue[i]
	}
	mae /= n
	mse /= n
	mean /= n

	ssTot := 0.0
	for _, v := range yTrue {
		ssTot += (v - mean) * (v - mean)
	}
	r2 := 0.0
	if ssTot > 0 {
		ssRes := mse * n
		r2 = 1 - ssRes/ssTot
	}

	return map[string]float64{
		"mae":  mae,
		"mse":  mse,
		"rmse": math.Sqrt(mse),
		"r2":   r2,
	}
}
