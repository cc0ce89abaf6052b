package app

const (
	baseScore    = 100
	minimumScore = 50
	// questionWindowMillis is the answer window the time bonus counts down from.
	questionWindowMillis = 10000
)

// Score returns the points awarded for a correct answer submitted latencyMillis after
// the question was broadcast. Faster answers earn up to 100 bonus points; the award never
// drops below 50.
func Score(latencyMillis int64) int {
	bonus := floorDiv(questionWindowMillis-latencyMillis, 100)
	points := baseScore + int(bonus)
	if points < minimumScore {
		return minimumScore
	}
	return points
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
