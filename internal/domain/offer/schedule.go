package offer

import (
	"strings"
	"time"
)

// MatchesSchedule reports whether the definition's activation windows admit
// the given instant. It covers the filters that need date/time arithmetic
// and so cannot be pushed into the candidate query: date range, daily time
// window, weekday set, and the soft usage cap.
func MatchesSchedule(d *Definition, now time.Time) bool {
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	if d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit {
		return false
	}
	if !withinDailyWindow(d, now) {
		return false
	}
	return onAllowedDay(d, now)
}

// withinDailyWindow compares the local "HH:MM" against the offer's window
// lexically, so a window crossing midnight (start > end) never matches.
// The authoring validator rejects such windows for that reason.
func withinDailyWindow(d *Definition, now time.Time) bool {
	if d.ValidHoursStart == "" || d.ValidHoursEnd == "" {
		return true
	}
	hm := now.Format("15:04")
	return hm >= d.ValidHoursStart && hm <= d.ValidHoursEnd
}

// MatchesPromoCode reports whether the definition matches the supplied promo
// code. With no code only offers without one match: promo-code offers never
// apply silently. With a code, the offer must carry an equal code, compared
// case-insensitively.
func MatchesPromoCode(d *Definition, code string) bool {
	if code == "" {
		return d.PromoCode == ""
	}
	return d.PromoCode != "" && strings.EqualFold(d.PromoCode, code)
}

// FilterCandidates applies the structural candidate filters to fetched
// definitions: promo-code matching and the activation schedule. Repositories
// call this after their query-level is_active/promo filters to cover what
// SQL cannot express.
func FilterCandidates(defs []Definition, now time.Time, promoCode string) []Definition {
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if !MatchesPromoCode(&d, promoCode) {
			continue
		}
		if !MatchesSchedule(&d, now) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func onAllowedDay(d *Definition, now time.Time) bool {
	if len(d.ValidDays) == 0 {
		return true
	}
	day := strings.ToLower(now.Weekday().String())
	for _, allowed := range d.ValidDays {
		if strings.EqualFold(allowed, day) {
			return true
		}
	}
	return false
}
