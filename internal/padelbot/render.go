package padelbot

import (
	"fmt"

	"github.com/enescakir/emoji"
	statModel "github.com/padel-games/padelbot/internal/database/stat/model"
	"github.com/padel-games/padelbot/internal/padelbot/timer"
	"github.com/padel-games/padelbot/internal/strpool"
)

func stateMark(state uint8) string {
	switch state {
	case timer.StateKindRunning:
		return emoji.PlayButton.String()
	case timer.StateKindPaused:
		return emoji.PauseButton.String()
	case timer.StateKindFinished:
		return emoji.ChequeredFlag.String()
	default:
		return emoji.StopButton.String()
	}
}

func renderDisplay(d timer.Display) string {
	b := strpool.Get()
	defer func() {
		b.Reset()
		strpool.Put(b)
	}()

	b.WriteString(emoji.Tennis.String())
	b.WriteString(fmt.Sprintf(" *Round %d/%d* %s\n", d.CurrRound, d.RoundsNum, stateMark(d.State)))
	b.WriteString(fmt.Sprintf("%s %s\n", emoji.Stopwatch.String(), d.Elapsed))
	b.WriteString(fmt.Sprintf("Average: %s\n", d.Average))
	b.WriteString(fmt.Sprintf("Estimated finish: %s", d.EstimatedEnd))

	return b.String()
}

func renderStats(agg statModel.AggregationStat) string {
	b := strpool.Get()
	defer func() {
		b.Reset()
		strpool.Put(b)
	}()

	b.WriteString(emoji.BarChart.String())
	b.WriteString(fmt.Sprintf(" *Rounds finished: %d*\n", agg.Count))
	b.WriteString(fmt.Sprintf("Average: %s\n", timer.FormatClock(agg.AvgDuration)))
	b.WriteString(fmt.Sprintf("Fastest: %s\n", timer.FormatClock(agg.BestDuration)))
	b.WriteString(fmt.Sprintf("Slowest: %s\n", timer.FormatClock(agg.WorstDuration)))
	b.WriteString(fmt.Sprintf("Total play time: %s", timer.FormatClock(agg.SumDuration)))

	return b.String()
}
