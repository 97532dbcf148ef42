package schedule

// MinutesOf converts a validated HH:MM string to minutes since midnight.
// Callers must have shape-checked the input; malformed strings map to 0.
func MinutesOf(hhmm string) int {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0
	}
	h := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	m := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	return h*60 + m
}

// RangesConflict reports whether two time ranges collide. The check is the
// explicit six-clause enumeration: equal starts, equal ends, either boundary
// strictly inside the other range, or either range strictly containing the
// other. A range ending exactly where the other starts does NOT conflict.
func RangesConflict(aStart, aEnd, bStart, bEnd string) bool {
	as, ae := MinutesOf(aStart), MinutesOf(aEnd)
	bs, be := MinutesOf(bStart), MinutesOf(bEnd)

	switch {
	case as == bs:
		return true
	case ae == be:
		return true
	case as > bs && as < be:
		return true
	case ae > bs && ae < be:
		return true
	case as < bs && be < ae:
		return true
	case bs < as && ae < be:
		return true
	}
	return false
}
