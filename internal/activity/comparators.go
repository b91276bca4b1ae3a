package activity

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/models"
)

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func itoaPtr(p *int) *string {
	if p == nil {
		return nil
	}
	s := strconv.Itoa(*p)
	return &s
}

// trackScalar emits one record when a plain value changed. label is how the
// field reads in the narrative, e.g. "target date".
func trackScalar(c *Context, field, label string, prev, next *string) []models.IssueActivity {
	if eqPtr(prev, next) {
		return nil
	}

	a := c.record(models.VerbUpdated, field)
	a.OldValue = clonePtr(prev)
	a.NewValue = clonePtr(next)
	a.Comment = c.say("updated the %s to %s", label, orNone(next))
	return []models.IssueActivity{a}
}

func trackEstimatePoint(c *Context, prev, next *int) []models.IssueActivity {
	if eqPtr(prev, next) {
		return nil
	}
	return trackScalar(c, models.FieldEstimatePoint, "estimate point", itoaPtr(prev), itoaPtr(next))
}

func trackState(ctx context.Context, c *Context, prev, next *uuid.UUID) ([]models.IssueActivity, error) {
	if eqPtr(prev, next) {
		return nil, nil
	}

	oldName, err := c.name(ctx, stateName, prev)
	if err != nil {
		return nil, err
	}
	newName, err := c.name(ctx, stateName, next)
	if err != nil {
		return nil, err
	}

	a := c.record(models.VerbUpdated, models.FieldState)
	a.OldValue = oldName
	a.NewValue = newName
	a.OldIdentifier = clonePtr(prev)
	a.NewIdentifier = clonePtr(next)
	a.Comment = c.say("updated the state to %s", orNone(newName))
	return []models.IssueActivity{a}, nil
}

// trackParent renders both parents as issue keys; the narrative names the new parent.
func trackParent(ctx context.Context, c *Context, prev, next *uuid.UUID) ([]models.IssueActivity, error) {
	if eqPtr(prev, next) {
		return nil, nil
	}

	oldKey, err := c.name(ctx, issueKey, prev)
	if err != nil {
		return nil, err
	}

	var newKey, newName *string
	if next != nil {
		ref, err := c.resolver.Issue(ctx, *next)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			key := c.Project.IssueKey(ref.SequenceID)
			newKey = &key
			newName = &ref.Name
		}
	}

	a := c.record(models.VerbUpdated, models.FieldParent)
	a.OldValue = oldKey
	a.NewValue = newKey
	a.OldIdentifier = clonePtr(prev)
	a.NewIdentifier = clonePtr(next)
	a.Comment = c.say("updated the parent issue to %s", orNone(newName))
	return []models.IssueActivity{a}, nil
}

// setField describes a many-to-many relation diffed as a set of ids.
type setField struct {
	field string
	noun  string
	name  nameFunc
}

var (
	labelSet    = setField{field: models.FieldLabels, noun: "label", name: labelName}
	assigneeSet = setField{field: models.FieldAssignees, noun: "assignee", name: userEmail}
	blocksSet   = setField{field: models.FieldBlocks, noun: "blocking issue", name: issueKey}
	blockingSet = setField{field: models.FieldBlocking, noun: "blocked by issue", name: issueKey}
)

// track emits one record per id added (in next order) and then one per id
// removed (in prev order).
func (f setField) track(ctx context.Context, c *Context, prev, next []uuid.UUID) ([]models.IssueActivity, error) {
	added, removed := diffIDs(prev, next)
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil
	}

	out := make([]models.IssueActivity, 0, len(added)+len(removed))
	for _, id := range added {
		n, err := c.name(ctx, f.name, &id)
		if err != nil {
			return nil, err
		}
		a := c.record(models.VerbUpdated, f.field)
		a.NewValue = n
		a.NewIdentifier = &id
		a.Comment = c.say("added %s %s", f.noun, orNone(n))
		out = append(out, a)
	}
	for _, id := range removed {
		n, err := c.name(ctx, f.name, &id)
		if err != nil {
			return nil, err
		}
		a := c.record(models.VerbUpdated, f.field)
		a.OldValue = n
		a.OldIdentifier = &id
		a.Comment = c.say("removed %s %s", f.noun, orNone(n))
		out = append(out, a)
	}
	return out, nil
}

// diffIDs returns next−prev and prev−next, each in encounter order and without duplicates.
func diffIDs(prev, next []uuid.UUID) (added, removed []uuid.UUID) {
	inPrev := make(map[uuid.UUID]struct{}, len(prev))
	for _, id := range prev {
		inPrev[id] = struct{}{}
	}
	inNext := make(map[uuid.UUID]struct{}, len(next))
	for _, id := range next {
		inNext[id] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{})
	for _, id := range next {
		if _, ok := inPrev[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		added = append(added, id)
	}
	for _, id := range prev {
		if _, ok := inNext[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		removed = append(removed, id)
	}
	return added, removed
}

type move struct {
	issueID    uuid.UUID
	prev, next *uuid.UUID
}

type assignment struct {
	issueID uuid.UUID
	target  uuid.UUID
}

// membershipField covers cycles and modules, whose moves and additions arrive
// already classified in the snapshot.
type membershipField struct {
	field string
	noun  string
	name  nameFunc
}

var (
	cycleMembership  = membershipField{field: models.FieldCycles, noun: "cycle", name: cycleName}
	moduleMembership = membershipField{field: models.FieldModules, noun: "module", name: moduleName}
)

func (f membershipField) track(ctx context.Context, c *Context, moves []move, adds []assignment) ([]models.IssueActivity, error) {
	out := make([]models.IssueActivity, 0, len(moves)+len(adds))
	for _, m := range moves {
		oldName, err := c.name(ctx, f.name, m.prev)
		if err != nil {
			return nil, err
		}
		newName, err := c.name(ctx, f.name, m.next)
		if err != nil {
			return nil, err
		}
		a := c.record(models.VerbUpdated, f.field)
		if m.issueID != uuid.Nil {
			a.IssueID = m.issueID
		}
		a.OldValue = oldName
		a.NewValue = newName
		a.OldIdentifier = clonePtr(m.prev)
		a.NewIdentifier = clonePtr(m.next)
		a.Comment = c.say("updated %s from %s to %s", f.noun, orNone(oldName), orNone(newName))
		out = append(out, a)
	}
	for _, add := range adds {
		n, err := c.name(ctx, f.name, &add.target)
		if err != nil {
			return nil, err
		}
		a := c.record(models.VerbCreated, f.field)
		if add.issueID != uuid.Nil {
			a.IssueID = add.issueID
		}
		a.NewValue = n
		a.NewIdentifier = &add.target
		a.Comment = c.say("added %s %s", f.noun, orNone(n))
		out = append(out, a)
	}
	return out, nil
}

func (s IssueSnapshot) cycleChanges() ([]move, []assignment) {
	moves := make([]move, 0, len(s.UpdatedCycleIssues))
	for _, m := range s.UpdatedCycleIssues {
		moves = append(moves, move{issueID: m.IssueID, prev: m.OldCycleID, next: m.NewCycleID})
	}
	adds := make([]assignment, 0, len(s.CreatedCycleIssues))
	for _, a := range s.CreatedCycleIssues {
		adds = append(adds, assignment{issueID: a.IssueID, target: a.CycleID})
	}
	return moves, adds
}

func (s IssueSnapshot) moduleChanges() ([]move, []assignment) {
	moves := make([]move, 0, len(s.UpdatedModuleIssues))
	for _, m := range s.UpdatedModuleIssues {
		moves = append(moves, move{issueID: m.IssueID, prev: m.OldModuleID, next: m.NewModuleID})
	}
	adds := make([]assignment, 0, len(s.CreatedModuleIssues))
	for _, a := range s.CreatedModuleIssues {
		adds = append(adds, assignment{issueID: a.IssueID, target: a.ModuleID})
	}
	return moves, adds
}

func (s IssueSnapshot) blockedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.BlockedIssues))
	for _, b := range s.BlockedIssues {
		ids = append(ids, b.Block)
	}
	return ids
}

func (s IssueSnapshot) blockerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.BlockerIssues))
	for _, b := range s.BlockerIssues {
		ids = append(ids, b.BlockedBy)
	}
	return ids
}
