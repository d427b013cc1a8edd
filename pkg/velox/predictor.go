package velox

// neuralPredictor is a sign-LMS integer adaptive filter of fixed order
// PredictorOrder, modelled directly on the teacher's qoaLMS: a small
// weights/history struct with predict()/update() methods and no
// sharing between encoder and decoder instances. It is used here to
// refine the LPC stage's residual rather than to predict raw samples
// directly, and generalized from QOA's fixed order 4 (with no
// delta-selection rule) to order 12 with the sign-LMS delta-selection
// rule of spec.md §4.6.
type neuralPredictor struct {
	weights [PredictorOrder]int64
	history [PredictorOrder]int64 // history[0] is the most recent value
}

// predict returns (sum(history[i] * weights[i])) >> 11.
func (p *neuralPredictor) predict() int64 {
	var acc int64
	for i := 0; i < PredictorOrder; i++ {
		acc += p.history[i] * p.weights[i]
	}
	return acc >> 11
}

// update adjusts weights based on the sign of the prediction error and
// shifts actual into the history. Update is applied to the value the
// predictor is modelling (the LPC residual), not to the final
// transmitted residual.
func (p *neuralPredictor) update(actual, predicted int64) {
	err := actual - predicted
	if err != 0 {
		delta := int64(predictorDeltaSmall)
		if err > predictorErrThreshold || err < -predictorErrThreshold {
			delta = predictorDeltaLarge
		}

		errSign := sign64(err)
		for i := 0; i < PredictorOrder; i++ {
			h := p.history[i]
			if h == 0 {
				continue
			}
			if sign64(h) == errSign {
				p.weights[i] += delta
			} else {
				p.weights[i] -= delta
			}
		}

		// Leakage: every 8th weight decays by 1 toward zero.
		for i := 0; i < PredictorOrder; i += 8 {
			if p.weights[i] > 0 {
				p.weights[i]--
			} else if p.weights[i] < 0 {
				p.weights[i]++
			}
		}
	}

	for i := PredictorOrder - 1; i > 0; i-- {
		p.history[i] = p.history[i-1]
	}
	p.history[0] = actual
}

func sign64(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
