package availability

import (
	"context"
	"strings"

	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/policies"
	"shareit/internal/app/queries"
	"shareit/internal/app/uow"
	"shareit/internal/domain/calendar"
)

const validateCandidateKey = "availability.validate"

// ValidateCandidateQuery checks a selection before it is submitted. The selection is either
// explicit Days or the inclusive range between Start and End in any order.
type ValidateCandidateQuery struct {
	ItemID string
	Days   []string
	Start  string
	End    string
}

func (q ValidateCandidateQuery) Key() string { return validateCandidateKey }

func (q ValidateCandidateQuery) candidate() ([]calendar.Day, error) {
	if strings.TrimSpace(q.Start) != "" || strings.TrimSpace(q.End) != "" {
		return calendar.ExpandRange(q.Start, q.End)
	}
	return calendar.ParseDays(q.Days)
}

type CandidateResult struct {
	ItemID string   `json:"item_id"`
	Days   []string `json:"days"`
	OK     bool     `json:"ok"`
}

// ValidateCandidateHandler is advisory: only the store's create is authoritative.
type ValidateCandidateHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
}

func (h *ValidateCandidateHandler) Handle(ctx context.Context, q ValidateCandidateQuery) (CandidateResult, error) {
	days, err := q.candidate()
	if err != nil {
		return CandidateResult{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return CandidateResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	index, err := loadIndex(execCtx, unit, q.ItemID)
	if err != nil {
		return CandidateResult{}, err
	}
	today := calendar.DayOf(policies.ClockOrSystem(h.Clock).Now())
	if err := index.Validate(days, today); err != nil {
		return CandidateResult{}, err
	}
	return CandidateResult{ItemID: string(index.ItemID), Days: calendar.Strings(calendar.Normalize(days)), OK: true}, nil
}

var _ queries.Handler[ValidateCandidateQuery, CandidateResult] = (*ValidateCandidateHandler)(nil)
