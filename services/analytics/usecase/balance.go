package usecase

import (
	"fmt"
	"strings"

	"github.com/meetpulse/backend/services/analytics/entity"
)

// classifyBalance derives the coarse verdict from the calculator outputs.
// It is deterministic: the same aggregates and signals always produce the
// same verdict, so it can be unit-tested without mocking time. Any single
// trigger flips the status and the reason text names which one fired.
func classifyBalance(agg aggregates, win windowSignals, underrepresented []string, participants []string, opts Options) entity.BalanceVerdict {
	verdict := entity.BalanceVerdict{
		Status:  entity.BalanceBalanced,
		Reasons: []string{},
	}

	// A lone talker can dominate against a participant who joined but never
	// spoke, so presence comes from the roster as well as the log.
	othersPresent := len(agg.speakers) > 1 || len(participants) > 1
	if win.recentDominant != "" && win.recentDominantShare > opts.DominantShareAlert && othersPresent {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"%s is dominating the recent conversation with %.0f%% of the words",
			win.recentDominant, win.recentDominantShare*100))
	}

	if len(underrepresented) > 0 {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
			"underrepresented speakers: %s", strings.Join(underrepresented, ", ")))
	}

	if win.transitions > 0 {
		ratio := float64(win.interruptions) / float64(win.transitions)
		if ratio > opts.InterruptionTurnRatioAlert {
			verdict.Reasons = append(verdict.Reasons, fmt.Sprintf(
				"%d of %d speaker transitions look like interruptions",
				win.interruptions, win.transitions))
		}
	}

	if len(verdict.Reasons) > 0 {
		verdict.Status = entity.BalanceNeedsAttention
	}

	return verdict
}
