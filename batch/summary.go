package batch

import (
	"time"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

func sum[T number](values []T) T {
	var ret T
	for _, v := range values {
		ret += v
	}
	return ret
}

// mean is 0 for no values
func mean[T number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(sum(values)) / float64(len(values))
}

func percent[T constraints.Integer](part, total T) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

func maxOf[T constraints.Ordered](values []T) T {
	var ret T
	for i, v := range values {
		if i == 0 || v > ret {
			ret = v
		}
	}
	return ret
}

type Summary struct {
	Games  int `json:"games"`
	Solved int `json:"solved"`
	Failed int `json:"failed"`

	// Histogram[i] is the number of games solved in i+1 turns
	Histogram []int   `json:"histogram"`
	SolveRate float64 `json:"solve_rate"` // percent

	// MeanSolved averages the turns of the solved games, MeanAll counts a failure as
	// max turns + 1
	MeanSolved     float64  `json:"mean_solved"`
	MeanAll        float64  `json:"mean_all"`
	WorstTurns     int      `json:"worst_turns"`
	FailedTargets  []string `json:"failed_targets,omitempty"`
	GamesPerSecond float64  `json:"games_per_second"`
}

// Summarize builds the statistics of the results.
func Summarize(results []Result, maxTurns int, elapsed time.Duration) Summary {
	ret := Summary{
		Games:     len(results),
		Histogram: make([]int, maxTurns),
	}
	solvedTurns := make([]int, 0, len(results))
	allTurns := make([]int, 0, len(results))
	for _, result := range results {
		if result.Solved {
			ret.Solved++
			if result.Turns >= 1 && result.Turns <= maxTurns {
				ret.Histogram[result.Turns-1]++
			}
			solvedTurns = append(solvedTurns, result.Turns)
			allTurns = append(allTurns, result.Turns)
		} else {
			ret.Failed++
			ret.FailedTargets = append(ret.FailedTargets, result.Target)
			allTurns = append(allTurns, maxTurns+1)
		}
	}
	ret.SolveRate = percent(ret.Solved, ret.Games)
	ret.MeanSolved = mean(solvedTurns)
	ret.MeanAll = mean(allTurns)
	ret.WorstTurns = maxOf(solvedTurns)
	if elapsed > 0 {
		ret.GamesPerSecond = float64(ret.Games) / elapsed.Seconds()
	}
	return ret
}
