package finance

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mukisa/shulefees/internal/model"
)

// ResolveEffectiveInstallments turns a student's resolved fee and plan (or
// custom schedule) into a concrete, dated installment schedule whose amounts
// sum exactly to the fee.
//
// Row sourcing precedence: a non-empty custom schedule beats any plan, a
// resolved plan beats nothing. A custom schedule is self-defining: its own
// explicit total becomes the fee, not the officially resolved one.
func (s *Service) ResolveEffectiveInstallments(ctx context.Context, studentID, className string, opts ResolveOptions) (*model.EffectiveSchedule, error) {
	eff, err := s.ResolveEffectiveFinance(ctx, studentID, className, opts)
	if err != nil {
		return nil, err
	}

	result := &model.EffectiveSchedule{
		Fee:    eff.Fee,
		PlanID: eff.PlanID,
		Source: model.SourceNone,
	}

	var rawRows []model.RawRow

	custom, err := s.loadCustomSchedule(ctx, opts.Year, studentID)
	if err != nil {
		return nil, err
	}
	switch {
	case custom != nil && len(custom.Rows) > 0:
		rawRows = custom.Rows
		result.Source = model.SourceCustom
		result.PlanName = "Custom Schedule"
		if result.PlanID == "" {
			result.PlanID = model.CustomPlanID
		}
	case eff.PlanID != "":
		data, err := s.cache.EnsureFinanceData(ctx, opts.Year)
		if err != nil {
			return nil, err
		}
		if plan, ok := data.Plans[eff.PlanID]; ok && plan.HasRows() {
			result.Source = model.SourcePlan
			result.PlanName = plan.Name
			if result.PlanName == "" {
				result.PlanName = plan.ID
			}
			if len(plan.Ordered) > 0 {
				rawRows = plan.Ordered
			} else {
				rawRows = orderKeyedRows(plan.Keyed)
			}
		}
	}

	if len(rawRows) == 0 {
		slog.Debug("no installment rows resolved",
			"student", studentID, "year", opts.Year, "plan", eff.PlanID)
		return result, nil
	}

	templates := make([]model.ScheduleRow, len(rawRows))
	for i, raw := range rawRows {
		templates[i] = parseScheduleRow(raw)
	}

	// A custom schedule defines its own total; the official fee only drives
	// allocation for plan-sourced rows.
	allocFee := eff.Fee
	if result.Source == model.SourceCustom {
		allocFee = 0
	}
	amounts, targetFee := allocateAmounts(templates, allocFee)

	result.Fee = targetFee
	result.Rows = make([]model.Installment, len(templates))
	for i, tpl := range templates {
		result.Rows[i] = model.Installment{
			Label:  tpl.Label,
			From:   tpl.From,
			To:     tpl.To,
			Window: windowText(tpl.From, tpl.To),
			Weight: tpl.Weight,
			Amount: amounts[i],
		}
	}
	return result, nil
}

func (s *Service) loadCustomSchedule(ctx context.Context, year int, studentID string) (*model.CustomSchedule, error) {
	v, err := s.store.Read(ctx, customSchedulePath(year, studentID))
	if err != nil {
		return nil, err
	}
	record, ok := asObject(v)
	if !ok {
		return nil, nil
	}

	cs := &model.CustomSchedule{
		Note:      toString(record["note"]),
		UpdatedAt: toString(record["updatedAt"]),
		UpdatedBy: toString(record["updatedBy"]),
	}
	if list, ok := record["rows"].([]any); ok {
		for _, rv := range list {
			if row, ok := asObject(rv); ok {
				cs.Rows = append(cs.Rows, model.RawRow(row))
			}
		}
	}
	return cs, nil
}

// parseScheduleRow extracts one template from a hand-entered row, resolving
// each logical field through its alias priority list. An amount that is
// absent, null or non-numeric stays unset, meaning "compute this".
func parseScheduleRow(raw model.RawRow) model.ScheduleRow {
	row := model.ScheduleRow{
		Label: firstString(raw, labelAliases),
		From:  firstString(raw, fromAliases),
		To:    firstString(raw, toAliases),
	}
	if w, ok := firstNumber(raw, weightAliases); ok {
		row.Weight = w
		row.HasWeight = true
	}
	if a, ok := firstNumber(raw, amountAliases); ok {
		row.Amount = a
		row.HasAmount = true
	}
	return row
}

// rowSortKey holds the ordering candidates extracted from one keyed row.
type rowSortKey struct {
	order    float64
	hasOrder bool
	month    int
	day      int
	hasMonth bool
	key      string
}

func extractSortKey(key string, raw model.RawRow) rowSortKey {
	sk := rowSortKey{key: key}
	if o, ok := firstNumber(raw, orderAliases); ok {
		sk.order = o
		sk.hasOrder = true
	}
	for _, alias := range monthAliases {
		if v, ok := raw[alias]; ok && v != nil {
			if m, ok := monthNumber(v); ok {
				sk.month = m
				sk.hasMonth = true
				break
			}
		}
	}
	if d, ok := firstNumber(raw, dayAliases); ok && d >= 1 && d <= 31 {
		sk.day = int(d)
	}
	return sk
}

// compareSortKeys applies the three-tier ordering for map-shaped schedules:
// explicit order field, then a (month, day) composite with month-less rows
// last, then the map key itself as a stable final tie-break.
func compareSortKeys(a, b rowSortKey) int {
	if a.hasOrder || b.hasOrder {
		switch {
		case a.hasOrder && b.hasOrder && a.order != b.order:
			if a.order < b.order {
				return -1
			}
			return 1
		case a.hasOrder && !b.hasOrder:
			return -1
		case b.hasOrder && !a.hasOrder:
			return 1
		}
	}
	if a.hasMonth || b.hasMonth {
		switch {
		case a.hasMonth && b.hasMonth:
			ac, bc := a.month*100+a.day, b.month*100+b.day
			if ac != bc {
				if ac < bc {
					return -1
				}
				return 1
			}
		case a.hasMonth:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(a.key, b.key)
}

// orderKeyedRows sorts a map-shaped schedule into a deterministic row list.
func orderKeyedRows(keyed map[string]model.RawRow) []model.RawRow {
	type entry struct {
		sk  rowSortKey
		row model.RawRow
	}
	entries := make([]entry, 0, len(keyed))
	for key, row := range keyed {
		entries = append(entries, entry{sk: extractSortKey(key, row), row: row})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return compareSortKeys(entries[i].sk, entries[j].sk) < 0
	})

	rows := make([]model.RawRow, len(entries))
	for i, e := range entries {
		rows[i] = e.row
	}
	return rows
}

// allocateAmounts fills in the unset row amounts so that all rows sum
// exactly to the target fee. Explicit amounts are never touched except by
// the final reconciliation nudge on the very last row.
//
// The remainder after explicit rows is split across unset rows, weighted
// when at least one unset row carries a positive weight and evenly
// otherwise. Each computed share is rounded to the nearest 10; the last
// unset row absorbs the rounding drift, and a final pass pins the whole
// list to the target.
func allocateAmounts(rows []model.ScheduleRow, fee float64) ([]float64, float64) {
	amounts := make([]float64, len(rows))

	var explicitTotal float64
	var unset []int
	for i, row := range rows {
		if row.HasAmount {
			amounts[i] = row.Amount
			explicitTotal += row.Amount
		} else {
			unset = append(unset, i)
		}
	}

	targetFee := fee
	if targetFee <= 0 {
		// A schedule with no associated fee is allowed to be self-defining.
		targetFee = explicitTotal
	}
	if len(rows) == 0 {
		return amounts, targetFee
	}

	remaining := targetFee - explicitTotal

	if len(unset) > 0 {
		var weightSum float64
		for _, i := range unset {
			if rows[i].HasWeight && rows[i].Weight > 0 {
				weightSum += rows[i].Weight
			}
		}

		var assigned float64
		for n, i := range unset {
			if n == len(unset)-1 {
				amounts[i] = remaining - assigned
				break
			}
			var share float64
			if weightSum > 0 {
				if rows[i].HasWeight && rows[i].Weight > 0 {
					share = remaining * rows[i].Weight / weightSum
				}
			} else {
				share = remaining / float64(len(unset))
			}
			share = roundToTen(share)
			amounts[i] = share
			assigned += share
		}
	}

	// Rounding and hand-entered explicit amounts can still leave drift;
	// the last row of the whole list absorbs it so the schedule total never
	// diverges from the fee.
	var total float64
	for _, a := range amounts {
		total += a
	}
	amounts[len(amounts)-1] += targetFee - total

	return amounts, targetFee
}

func roundToTen(v float64) float64 {
	return math.Round(v/10) * 10
}

// windowText renders the display window for a row from its free-form date
// boundaries, joined with an en-dash. Boundaries that parse as dates are
// reformatted; anything else passes through as entered.
func windowText(from, to string) string {
	f, t := formatDateLike(from), formatDateLike(to)
	switch {
	case f != "" && t != "":
		return f + " – " + t
	case f != "":
		return f
	default:
		return t
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

func formatDateLike(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d.Format("2 Jan 2006")
		}
	}
	return v
}
