// Package decay models the time-based freshness of peer endorsements.
//
// An endorsement is fully fresh for DecayStartMonths after its last
// (re)certification, then decays linearly until ExpiryMonths, at which
// point it is fully expired. Decay is a signal prompting recertification;
// whether an expired endorsement still counts toward a score is a policy
// decision made by the caller.
package decay

import (
	"time"

	"github.com/commonshub/trustcore/internal/model"
)

// Decay window, in months since the endorsement's last update.
const (
	DecayStartMonths = 6
	ExpiryMonths     = 12
)

// hoursPerMonth uses the mean Gregorian month so that elapsed months are
// continuous and two endorsements of different ages inside the decay
// window remain distinguishable.
const hoursPerMonth = 24 * 30.4375

// MonthsBetween returns the fractional months elapsed from from to to.
// Never negative: a future from yields 0.
func MonthsBetween(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Hours() / hoursPerMonth
}

// Status computes the decay state of an endorsement last updated at
// lastUpdated, as of now.
func Status(lastUpdated, now time.Time) model.DecayInfo {
	months := MonthsBetween(lastUpdated, now)
	info := model.DecayInfo{MonthsElapsed: months}
	switch {
	case months <= DecayStartMonths:
		// fully fresh
	case months >= ExpiryMonths:
		info.DecayPercent = 100
		info.IsExpired = true
	default:
		info.DecayPercent = (months - DecayStartMonths) / (ExpiryMonths - DecayStartMonths) * 100
		info.IsDecaying = true
	}
	if months < ExpiryMonths {
		info.MonthsUntilExpiry = ExpiryMonths - months
	}
	return info
}

// StartHorizon returns the instant before which a last-update timestamp
// means the endorsement has started decaying. Calendar months, matching
// how storage queries bucket rows.
func StartHorizon(now time.Time) time.Time {
	return now.AddDate(0, -DecayStartMonths, 0)
}

// ExpiryHorizon returns the instant before which a last-update timestamp
// means the endorsement is fully expired.
func ExpiryHorizon(now time.Time) time.Time {
	return now.AddDate(0, -ExpiryMonths, 0)
}

// NoticeWindow returns the [start, end) last-update interval of
// endorsements that crossed the decay threshold within the day before
// now. The sweep notifies their grantors exactly once.
func NoticeWindow(now time.Time) (start, end time.Time) {
	end = StartHorizon(now)
	start = end.AddDate(0, 0, -1)
	return start, end
}
