// Package match selects skill-compatible candidates for a requester and
// ranks them by reputation, shared interests and proximity.
package match

import "github.com/onnwee/skillmatch/internal/profile"

// Mode records which compatibility rule produced a filtered pool.
type Mode string

const (
	// ModeFull means every candidate can both teach and learn from the requester.
	ModeFull Mode = "full"
	// ModeOneWay means no full matches existed and one-direction matches were used.
	ModeOneWay Mode = "one_way"
	// ModeNone means no candidate matched in either direction.
	ModeNone Mode = "none"
)

// IsFullMatch reports whether candidate teaches something requester wants to
// learn and wants to learn something requester teaches.
func IsFullMatch(requester, candidate profile.UserProfile) bool {
	return profile.Intersects(candidate.Teach, requester.Learn) &&
		profile.Intersects(requester.Teach, candidate.Learn)
}

// IsOneWayMatch reports whether the teach/learn relation holds in at least
// one direction.
func IsOneWayMatch(requester, candidate profile.UserProfile) bool {
	return profile.Intersects(candidate.Teach, requester.Learn) ||
		profile.Intersects(requester.Teach, candidate.Learn)
}

// Filter returns the full matches in pool, or the one-way matches when there
// are none. Input order is preserved.
func Filter(requester profile.UserProfile, pool []profile.UserProfile) []profile.UserProfile {
	matched, _ := FilterWithMode(requester, pool)
	return matched
}

// FilterWithMode is Filter that also reports which rule was applied.
func FilterWithMode(requester profile.UserProfile, pool []profile.UserProfile) ([]profile.UserProfile, Mode) {
	var full, oneWay []profile.UserProfile
	for _, candidate := range pool {
		switch {
		case IsFullMatch(requester, candidate):
			full = append(full, candidate)
		case IsOneWayMatch(requester, candidate):
			oneWay = append(oneWay, candidate)
		}
	}

	if len(full) > 0 {
		return full, ModeFull
	}
	if len(oneWay) > 0 {
		return oneWay, ModeOneWay
	}
	return []profile.UserProfile{}, ModeNone
}
