// Package model defines the fee configuration and installment types shared
// across the engine.
package model

// ScheduleSource identifies which configuration layer produced a student's
// installment rows.
type ScheduleSource string

const (
	// SourceCustom means a per-student custom schedule replaced any plan.
	SourceCustom ScheduleSource = "CUSTOM"
	// SourcePlan means the rows came from a shared plan template.
	SourcePlan ScheduleSource = "PLAN"
	// SourceNone means no schedule could be resolved.
	SourceNone ScheduleSource = "NONE"
)

// CustomPlanID is the sentinel plan identifier used when a custom schedule
// has no plan of its own.
const CustomPlanID = "CUSTOM"

// RawRow is a schedule row exactly as stored: hand-entered fields under a
// variety of historical names. Parsing into a ScheduleRow happens in the
// finance package.
type RawRow map[string]any

// ClassConfig is the fee and default plan configured for one class in one
// billing year.
type ClassConfig struct {
	Name          string
	FeePerYear    float64
	DefaultPlanID string
}

// Plan is a reusable installment schedule shared by many students. Exactly
// one of Ordered or Keyed is populated: older data stores the schedule as a
// map that must be sorted before use, newer data as an ordered list.
type Plan struct {
	ID      string
	Name    string
	Ordered []RawRow
	Keyed   map[string]RawRow
}

// HasRows reports whether the plan carries any schedule rows at all.
func (p *Plan) HasRows() bool {
	return len(p.Ordered) > 0 || len(p.Keyed) > 0
}

// StudentFeeOverride replaces the class fee for one student. Only honored
// while Locked is true; an unlocked override is inert.
type StudentFeeOverride struct {
	FeePerYear float64
	Locked     bool
	UpdatedAt  string
	UpdatedBy  string
}

// StudentPlanOverride replaces the class default plan for one student. It
// always wins when present; there is no lock flag for plans.
type StudentPlanOverride struct {
	PlanID    string
	UpdatedAt string
	UpdatedBy string
}

// CustomSchedule is a one-off schedule attached to a single student. A
// non-empty one takes precedence over any plan.
type CustomSchedule struct {
	Rows      []RawRow
	Note      string
	UpdatedAt string
	UpdatedBy string
}

// ScheduleRow is a parsed but not yet amount-complete installment template.
// HasAmount distinguishes an explicit zero from "compute this".
type ScheduleRow struct {
	Label     string
	From      string
	To        string
	Weight    float64
	HasWeight bool
	Amount    float64
	HasAmount bool
}

// Installment is one fully resolved schedule row with a concrete amount.
type Installment struct {
	Label  string  `json:"label"`
	From   string  `json:"from,omitempty"`
	To     string  `json:"to,omitempty"`
	Window string  `json:"window,omitempty"`
	Weight float64 `json:"weight"`
	Amount float64 `json:"amount"`
}

// EffectiveFinance is the fee and plan that actually apply to one student
// after the override hierarchy. The raw config records are carried through
// for audit display.
type EffectiveFinance struct {
	Fee          float64
	PlanID       string
	ClassConfig  *ClassConfig
	FeeOverride  *StudentFeeOverride
	PlanOverride *StudentPlanOverride
}

// EffectiveSchedule is a student's concrete installment schedule. The rows
// always sum exactly to Fee when any row exists.
type EffectiveSchedule struct {
	Fee      float64
	PlanID   string
	PlanName string
	Rows     []Installment
	Source   ScheduleSource
}

// YearData is an immutable snapshot of all fee configuration for one billing
// year, as served by the config cache. Classes are keyed by normalized class
// name, plans by plan ID, overrides by student ID.
type YearData struct {
	Year         int
	Classes      map[string]ClassConfig
	Plans        map[string]Plan
	StudentFees  map[string]StudentFeeOverride
	StudentPlans map[string]StudentPlanOverride
}
