package domain

// Day tick weights.
const (
	careDriftWeight        = 16.0
	consistencyDriftWeight = 12.0
	fatigueStabilityWeight = 1.4
	dormantStabilityLoss   = 8.0

	overloadFatigueLevel  = 6.0
	overloadFatigueGain   = 0.45
	dormantFatigueGain    = 0.9
	lowCareFatigueGain    = 1.1
	driftingFatigueGain   = 0.5
	steadyFatigueRecovery = 1.35
	okayFatigueRecovery   = 0.95
	baseFatigueRecovery   = 0.55

	MaxRoutineStability = 100.0
	MaxRequestFatigue   = 10.0
)

// DayTickInput carries the signals for one day tick.
type DayTickInput struct {
	CareScore             float64
	CareConsistency       float64
	RoutineStabilityScore float64
	RequestFatigue        float64
	IsDormant             bool
}

// DayTickResult is the next routine state.
type DayTickResult struct {
	RoutineStabilityScore float64
	RequestFatigue        float64
	EmotionalArc          EmotionalArc
}

// ComputeDayTick maps the prior routine state and today's care into the next
// routine stability, request fatigue and emotional arc.
func ComputeDayTick(in DayTickInput) DayTickResult {
	care := Clamp(in.CareScore, 0, 1)
	consistency := Clamp(in.CareConsistency, 0, 1)
	fatigue := Clamp(in.RequestFatigue, 0, MaxRequestFatigue)
	stability := Clamp(in.RoutineStabilityScore, 0, MaxRoutineStability)

	routineDelta := (care-0.5)*careDriftWeight +
		(consistency-0.5)*consistencyDriftWeight -
		fatigue*fatigueStabilityWeight
	if in.IsDormant {
		routineDelta -= dormantStabilityLoss
	}
	nextStability := Clamp(Round2(stability+routineDelta), 0, MaxRoutineStability)
	nextFatigue := Clamp(Round2(fatigue+fatigueShift(care, consistency, fatigue, in.IsDormant)), 0, MaxRequestFatigue)

	return DayTickResult{
		RoutineStabilityScore: nextStability,
		RequestFatigue:        nextFatigue,
		EmotionalArc: ClassifyEmotionalArc(ArcInput{
			CareScore:        care,
			RoutineStability: nextStability,
			RequestFatigue:   nextFatigue,
			IsDormant:        in.IsDormant,
		}),
	}
}

func fatigueShift(care, consistency, fatigue float64, dormant bool) float64 {
	var recovery float64
	switch {
	case consistency >= 0.75:
		recovery = steadyFatigueRecovery
	case consistency >= 0.55:
		recovery = okayFatigueRecovery
	default:
		recovery = baseFatigueRecovery
	}

	var routinePenalty float64
	switch {
	case care < 0.35:
		routinePenalty = lowCareFatigueGain
	case care < 0.5:
		routinePenalty = driftingFatigueGain
	}

	shift := routinePenalty - recovery
	if fatigue >= overloadFatigueLevel {
		shift += overloadFatigueGain
	}
	if dormant {
		shift += dormantFatigueGain
	}
	return shift
}

// ArcInput feeds the emotional arc rule table.
type ArcInput struct {
	CareScore        float64
	RoutineStability float64
	RequestFatigue   float64
	IsDormant        bool
}

// ClassifyEmotionalArc applies the arc rules in priority order; the first
// matching rule wins.
func ClassifyEmotionalArc(in ArcInput) EmotionalArc {
	switch {
	case in.IsDormant:
		return ArcDormantRecovery
	case in.RequestFatigue >= 5 || in.RoutineStability < 30:
		return ArcRepairSequence
	case in.CareScore < 0.4 || in.RoutineStability < 45:
		return ArcFragileEcho
	case in.CareScore < 0.55 || in.RoutineStability < 58:
		return ArcRoutineDrift
	case in.CareScore >= 0.75 && in.RoutineStability >= 75:
		return ArcResonantGrowth
	case in.CareScore >= 0.58 && in.RoutineStability >= 58:
		return ArcSteadyBloom
	default:
		return ArcForming
	}
}
