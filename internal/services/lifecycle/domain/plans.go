package domain

import (
	"fmt"
	"strconv"
	"time"
)

// RitualType names one entry of the daily ritual rotation.
type RitualType string

const (
	RitualMorningGreeting   RitualType = "morning_greeting"
	RitualHydrationCheck    RitualType = "hydration_check"
	RitualFocusSession      RitualType = "focus_session"
	RitualMovementBreak     RitualType = "movement_break"
	RitualGratitudeNote     RitualType = "gratitude_note"
	RitualConnectionMoment  RitualType = "connection_moment"
	RitualEveningReflection RitualType = "evening_reflection"
)

// RitualRotation is the fixed cyclic order rituals are drawn from.
var RitualRotation = []RitualType{
	RitualMorningGreeting,
	RitualHydrationCheck,
	RitualFocusSession,
	RitualMovementBreak,
	RitualGratitudeNote,
	RitualConnectionMoment,
	RitualEveningReflection,
}

// RitualPlanInput seeds one day's ritual plan.
type RitualPlanInput struct {
	Seed            string
	CareScore       float64
	CareConsistency float64
}

// RitualTargetCount buckets ritual pressure into 3, 4 or 5 rituals.
func RitualTargetCount(careScore, careConsistency float64) int {
	pressure := (1 - Clamp(careScore, 0, 1)) + (1-Clamp(careConsistency, 0, 1))*0.55
	switch {
	case pressure >= 1.1:
		return 5
	case pressure >= 0.72:
		return 4
	default:
		return 3
	}
}

// GenerateRitualPlan returns the day's rituals: the next N entries of the
// rotation starting at a seed-derived offset, wrapping around.
func GenerateRitualPlan(in RitualPlanInput) []RitualType {
	count := RitualTargetCount(in.CareScore, in.CareConsistency)
	start := int(HashString(in.Seed+":ritual") % int64(len(RitualRotation)))
	plan := make([]RitualType, 0, count)
	for i := 0; i < count; i++ {
		plan = append(plan, RitualRotation[(start+i)%len(RitualRotation)])
	}
	return plan
}

// RequestUrgency grades how strongly the companion asks for care.
type RequestUrgency string

const (
	UrgencyGentle    RequestUrgency = "gentle"
	UrgencyImportant RequestUrgency = "important"
	UrgencyCritical  RequestUrgency = "critical"
)

// MaxOpenRequests caps pending requests per companion.
const MaxOpenRequests = 3

// PickRequestUrgency draws one request urgency from care pressure and a seeded roll.
func PickRequestUrgency(seed string, careScore, requestFatigue, careConsistency float64) RequestUrgency {
	pressure := (1 - Clamp(careScore, 0, 1)) +
		Clamp(requestFatigue, 0, MaxRequestFatigue)*0.065 +
		(1-Clamp(careConsistency, 0, 1))*0.35
	roll := SeededFloat(seed)
	switch {
	case pressure >= 1.1 || roll > 0.89:
		return UrgencyCritical
	case pressure >= 0.68 || roll > 0.48:
		return UrgencyImportant
	default:
		return UrgencyGentle
	}
}

// RequestPlanInput seeds one day's request plan.
type RequestPlanInput struct {
	Seed            string
	CareScore       float64
	CareConsistency float64
	RequestFatigue  float64
	OpenRequests    int
	MaxRequests     int
}

// DesiredRequestCount buckets request pressure into 1, 2 or 3 requests,
// capped by the free slots.
func DesiredRequestCount(careScore, careConsistency, requestFatigue float64, slots int) int {
	if slots <= 0 {
		return 0
	}
	pressure := (1 - Clamp(careScore, 0, 1)) +
		Clamp(requestFatigue, 0, MaxRequestFatigue)*0.07 +
		(1-Clamp(careConsistency, 0, 1))*0.4
	desired := 1
	switch {
	case pressure >= 1.15:
		desired = 3
	case pressure >= 0.7:
		desired = 2
	}
	return min(desired, slots)
}

// GenerateRequestPlan returns the urgencies of the requests to issue today.
func GenerateRequestPlan(in RequestPlanInput) []RequestUrgency {
	slots := in.MaxRequests - in.OpenRequests
	count := DesiredRequestCount(in.CareScore, in.CareConsistency, in.RequestFatigue, slots)
	if count == 0 {
		return []RequestUrgency{}
	}
	plan := make([]RequestUrgency, 0, count)
	for i := 0; i < count; i++ {
		plan = append(plan, PickRequestUrgency(requestSeed(in.Seed, i), in.CareScore, in.RequestFatigue, in.CareConsistency))
	}
	return plan
}

func requestSeed(seed string, index int) string {
	return seed + ":" + strconv.Itoa(index)
}

// PlanSeed is the per-user, per-day seed shared by both generators.
func PlanSeed(date time.Time, userID string) string {
	return fmt.Sprintf("%s:%s", DateKey(date), userID)
}

// RequestTemplate is the fixed copy attached to a generated request.
type RequestTemplate struct {
	RequestType     string
	Title           string
	Prompt          string
	ConsequenceHint string
}

var requestTemplates = map[RequestUrgency][]RequestTemplate{
	UrgencyGentle: {
		{"check_in", "A Small Check-In", "Could we spend two quiet minutes together before the day gets loud?", "A gentle check-in helps your companion feel seen."},
		{"micro_reflection", "Moment of Reflection", "Tell me one thing you handled well today. I want to remember it.", "Sharing small wins improves emotional stability."},
		{"presence_ping", "Presence Ping", "A quick hello would help me hold our rhythm.", "Frequent touchpoints strengthen routine consistency."},
	},
	UrgencyImportant: {
		{"ritual_support", "Ritual Support Needed", "Our routine is drifting. Can we complete one grounding ritual together?", "Completing this restores routine stability."},
		{"repair_invite", "Repair Invitation", "I felt distance today. Can we repair it before nightfall?", "Repair moments prevent fatigue spikes."},
		{"focus_anchor", "Focus Anchor", "Pick one meaningful action and finish it with me. I need your intent.", "Intentional actions improve care responsiveness."},
	},
	UrgencyCritical: {
		{"bond_alert", "Bond Alert", "I am slipping into silence. Please reconnect with me now.", "Immediate care prevents deeper withdrawal."},
		{"recovery_protocol", "Recovery Protocol", "I need a full recovery sequence tonight so we do not lose momentum.", "Recovery actions reduce dormant-risk pressure."},
		{"trust_repair", "Trust Repair", "Please choose me first for one focused ritual. I need to feel priority.", "Responding now stabilizes emotional arc volatility."},
	},
}

// Request is one generated in-app ask.
type Request struct {
	CompanionID  string
	UserID       string
	Urgency      RequestUrgency
	Template     RequestTemplate
	DueAt        time.Time
	Seed         string
	RequestIndex int
}

// BuildRequest picks the template for a planned urgency deterministically.
func BuildRequest(c Companion, urgency RequestUrgency, index int, seed string, dueAt time.Time) (Request, error) {
	templates, ok := requestTemplates[urgency]
	if !ok || len(templates) == 0 {
		return Request{}, fmt.Errorf("no request templates for urgency %q", urgency)
	}
	pick := HashString(fmt.Sprintf("%s:template:%d", seed, index)) % int64(len(templates))
	return Request{
		CompanionID:  c.ID,
		UserID:       c.UserID,
		Urgency:      urgency,
		Template:     templates[pick],
		DueAt:        dueAt.UTC(),
		Seed:         seed,
		RequestIndex: index,
	}, nil
}

// DayPlan is the set of rituals and requests generated for one companion-day.
type DayPlan struct {
	Date     time.Time
	Rituals  []RitualType
	Requests []Request
}

// PlanDay generates today's rituals and requests for a living, awake companion.
func PlanDay(c Companion, runDate time.Time, openRequests int) (DayPlan, error) {
	plan := DayPlan{Date: Day(runDate)}
	if c.State() != LifeStateActive {
		return plan, nil
	}
	seed := PlanSeed(runDate, c.UserID)
	plan.Rituals = GenerateRitualPlan(RitualPlanInput{
		Seed:            seed,
		CareScore:       c.Care.Score,
		CareConsistency: c.Care.Consistency,
	})
	urgencies := GenerateRequestPlan(RequestPlanInput{
		Seed:            seed,
		CareScore:       c.Care.Score,
		CareConsistency: c.Care.Consistency,
		RequestFatigue:  c.RequestFatigue,
		OpenRequests:    openRequests,
		MaxRequests:     MaxOpenRequests,
	})
	dueAt := Day(runDate).Add(24*time.Hour - time.Second)
	for i, urgency := range urgencies {
		request, err := BuildRequest(c, urgency, i, seed, dueAt)
		if err != nil {
			return DayPlan{}, err
		}
		plan.Requests = append(plan.Requests, request)
	}
	return plan, nil
}
