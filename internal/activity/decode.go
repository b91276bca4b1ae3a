package activity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/issue-activity/backend/internal/models"
)

// ErrMalformedEvent is returned when a tracked event lacks the payloads its
// verb needs or carries payloads that cannot be decoded.
var ErrMalformedEvent = errors.New("malformed mutation event")

// Decode turns a queued event into its typed Mutation. Event kinds this
// service does not track decode to a nil Mutation and no error.
func Decode(ev models.MutationEvent) (Mutation, error) {
	kind := ev.Kind()
	if kind.IsZero() {
		return nil, nil
	}

	before, err := ev.Before()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: current_instance: %v", ErrMalformedEvent, kind, err)
	}
	after, err := ev.After()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: requested_data: %v", ErrMalformedEvent, kind, err)
	}
	if before == nil && after == nil {
		return nil, fmt.Errorf("%w: %s: no payload", ErrMalformedEvent, kind)
	}

	d := decoder{kind: kind, before: before, after: after}

	switch kind.Entity {
	case models.EntityIssue:
		switch kind.Verb {
		case models.VerbCreated:
			return done(IssueCreated{}, d.require(after, "requested_data"))
		case models.VerbUpdated:
			return d.issueUpdated()
		case models.VerbDeleted:
			return IssueDeleted{}, nil
		}

	case models.EntityComment:
		switch kind.Verb {
		case models.VerbCreated:
			var m CommentCreated
			err := d.into(after, "requested_data", &m.After)
			return done(m, err)
		case models.VerbUpdated:
			var m CommentUpdated
			err := d.both(&m.Before, &m.After)
			return done(m, err)
		case models.VerbDeleted:
			var m CommentDeleted
			err := optional(d, &m.Before)
			return done(m, err)
		}

	case models.EntityLink:
		switch kind.Verb {
		case models.VerbCreated:
			var m LinkCreated
			err := d.into(after, "requested_data", &m.After)
			return done(m, err)
		case models.VerbUpdated:
			var m LinkUpdated
			err := d.both(&m.Before, &m.After)
			return done(m, err)
		case models.VerbDeleted:
			var m LinkDeleted
			err := optional(d, &m.Before)
			return done(m, err)
		}

	case models.EntityAttachment:
		switch kind.Verb {
		case models.VerbCreated:
			// Attachments are uploaded first, so producers may only have the
			// stored instance to send.
			src, name := after, "requested_data"
			if src == nil {
				src, name = before, "current_instance"
			}
			var m AttachmentCreated
			err := d.into(src, name, &m.After)
			return done(m, err)
		case models.VerbUpdated:
			var m AttachmentUpdated
			err := d.both(&m.Before, &m.After)
			return done(m, err)
		case models.VerbDeleted:
			var m AttachmentDeleted
			err := optional(d, &m.Before)
			return done(m, err)
		}
	}

	return nil, nil
}

func done(m Mutation, err error) (Mutation, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

type decoder struct {
	kind   models.Kind
	before []byte
	after  []byte
}

func (d decoder) require(data []byte, name string) error {
	if data == nil {
		return fmt.Errorf("%w: %s requires %s", ErrMalformedEvent, d.kind, name)
	}
	return nil
}

func (d decoder) into(data []byte, name string, v any) error {
	if err := d.require(data, name); err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %s: %v", ErrMalformedEvent, d.kind, name, err)
	}
	return nil
}

func (d decoder) both(before, after any) error {
	if err := d.into(d.before, "current_instance", before); err != nil {
		return err
	}
	return d.into(d.after, "requested_data", after)
}

// issueUpdated decodes both issue payloads key by key, so a single unreadable
// field does not discard the rest of the edit.
func (d decoder) issueUpdated() (Mutation, error) {
	if err := d.require(d.before, "current_instance"); err != nil {
		return nil, err
	}
	if err := d.require(d.after, "requested_data"); err != nil {
		return nil, err
	}

	var m IssueUpdated
	var err error
	if m.SkippedBefore, err = decodeKeys(d.before, m.Before.keys()); err != nil {
		return nil, fmt.Errorf("%w: %s: current_instance: %v", ErrMalformedEvent, d.kind, err)
	}
	if m.SkippedAfter, err = decodeKeys(d.after, m.After.keys()); err != nil {
		return nil, fmt.Errorf("%w: %s: requested_data: %v", ErrMalformedEvent, d.kind, err)
	}
	return m, nil
}

// optional decodes the prior snapshot into *v when one was sent.
func optional[T any](d decoder, v **T) error {
	if d.before == nil {
		return nil
	}
	var t T
	if err := json.Unmarshal(d.before, &t); err != nil {
		return fmt.Errorf("%w: %s: current_instance: %v", ErrMalformedEvent, d.kind, err)
	}
	*v = &t
	return nil
}
