// Package domain holds the companion life simulation rules.
//
// Everything here is pure: stages take a Companion value plus the day's
// inputs and return the next Companion value together with an outcome that
// describes what changed. The daily batch in the app package performs all I/O
// and threads companions through these stages in order:
//
//   - care signals (ComputeCareSignals)
//   - day tick (ComputeDayTick)
//   - lifecycle transition (AdvanceDay)
//   - weekly maintenance (ApplyWeeklyMaintenance)
//   - daily plans (GenerateRitualPlan, GenerateRequestPlan)
package domain
