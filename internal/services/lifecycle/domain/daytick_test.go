package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeDayTickDeterministic(t *testing.T) {
	in := DayTickInput{CareScore: 0.63, CareConsistency: 0.58, RoutineStabilityScore: 52.5, RequestFatigue: 2.3}
	first := ComputeDayTick(in)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, ComputeDayTick(in)); diff != "" {
			t.Fatalf("ComputeDayTick not deterministic (-first +got):\n%s", diff)
		}
	}
}

func TestComputeDayTickBounds(t *testing.T) {
	values := []float64{-5, 0, 0.2, 0.5, 0.9, 1, 3, math.NaN(), math.Inf(1)}
	levels := []float64{-20, 0, 29.99, 60, 100, 250, math.NaN()}
	fatigues := []float64{-1, 0, 4, 6, 10, 40, math.Inf(-1)}
	for _, care := range values {
		for _, consistency := range values {
			for _, stability := range levels {
				for _, fatigue := range fatigues {
					for _, dormant := range []bool{false, true} {
						got := ComputeDayTick(DayTickInput{
							CareScore:             care,
							CareConsistency:       consistency,
							RoutineStabilityScore: stability,
							RequestFatigue:        fatigue,
							IsDormant:             dormant,
						})
						if got.RoutineStabilityScore < 0 || got.RoutineStabilityScore > 100 || math.IsNaN(got.RoutineStabilityScore) {
							t.Fatalf("stability = %v out of bounds for care=%v consistency=%v stability=%v fatigue=%v",
								got.RoutineStabilityScore, care, consistency, stability, fatigue)
						}
						if got.RequestFatigue < 0 || got.RequestFatigue > 10 || math.IsNaN(got.RequestFatigue) {
							t.Fatalf("fatigue = %v out of bounds for care=%v consistency=%v stability=%v fatigue=%v",
								got.RequestFatigue, care, consistency, stability, fatigue)
						}
					}
				}
			}
		}
	}
}

func TestComputeDayTickNeglect(t *testing.T) {
	got := ComputeDayTick(DayTickInput{
		CareScore:             0.2,
		CareConsistency:       0.25,
		RoutineStabilityScore: 60,
		RequestFatigue:        6,
	})
	if got.RoutineStabilityScore >= 60 {
		t.Fatalf("stability = %v, want < 60", got.RoutineStabilityScore)
	}
	if got.RequestFatigue < 6 {
		t.Fatalf("fatigue = %v, want >= 6", got.RequestFatigue)
	}
	if got.EmotionalArc != ArcFragileEcho && got.EmotionalArc != ArcRepairSequence {
		t.Fatalf("arc = %q, want fragile_echo or repair_sequence", got.EmotionalArc)
	}
	want := DayTickResult{RoutineStabilityScore: 43.8, RequestFatigue: 7, EmotionalArc: ArcRepairSequence}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("neglect tick mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDayTickGrowth(t *testing.T) {
	got := ComputeDayTick(DayTickInput{
		CareScore:             0.9,
		CareConsistency:       0.9,
		RoutineStabilityScore: 70,
		RequestFatigue:        1,
	})
	// 70 + 6.4 + 4.8 - 1.4
	if got.RoutineStabilityScore != 79.8 {
		t.Fatalf("stability = %v, want 79.8", got.RoutineStabilityScore)
	}
	if got.RequestFatigue != 0 {
		t.Fatalf("fatigue = %v, want 0", got.RequestFatigue)
	}
	if got.EmotionalArc != ArcResonantGrowth {
		t.Fatalf("arc = %q, want resonant_growth", got.EmotionalArc)
	}
}

func TestComputeDayTickDormant(t *testing.T) {
	got := ComputeDayTick(DayTickInput{CareScore: 0.5, CareConsistency: 0.5, RoutineStabilityScore: 50, IsDormant: true})
	if got.RoutineStabilityScore != 42 {
		t.Fatalf("stability = %v, want 42", got.RoutineStabilityScore)
	}
	// recovery 0.55 against the dormancy gain 0.9
	if got.RequestFatigue != 0.35 {
		t.Fatalf("fatigue = %v, want 0.35", got.RequestFatigue)
	}
	if got.EmotionalArc != ArcDormantRecovery {
		t.Fatalf("arc = %q, want dormant_recovery", got.EmotionalArc)
	}
}

func TestClassifyEmotionalArc(t *testing.T) {
	tests := []struct {
		name string
		in   ArcInput
		want EmotionalArc
	}{
		{name: "dormant wins", in: ArcInput{CareScore: 1, RoutineStability: 100, IsDormant: true}, want: ArcDormantRecovery},
		{name: "fatigue", in: ArcInput{CareScore: 1, RoutineStability: 100, RequestFatigue: 5}, want: ArcRepairSequence},
		{name: "low stability", in: ArcInput{CareScore: 1, RoutineStability: 29}, want: ArcRepairSequence},
		{name: "fragile care", in: ArcInput{CareScore: 0.39, RoutineStability: 80}, want: ArcFragileEcho},
		{name: "fragile stability", in: ArcInput{CareScore: 0.9, RoutineStability: 44}, want: ArcFragileEcho},
		{name: "drift", in: ArcInput{CareScore: 0.5, RoutineStability: 80}, want: ArcRoutineDrift},
		{name: "resonant", in: ArcInput{CareScore: 0.75, RoutineStability: 75}, want: ArcResonantGrowth},
		{name: "steady", in: ArcInput{CareScore: 0.6, RoutineStability: 60}, want: ArcSteadyBloom},
		{name: "forming", in: ArcInput{CareScore: 0.56, RoutineStability: 80}, want: ArcForming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyEmotionalArc(tt.in); got != tt.want {
				t.Fatalf("ClassifyEmotionalArc() = %q, want %q", got, tt.want)
			}
		})
	}
}
