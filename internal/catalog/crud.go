package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// setter parses one raw field value into rec. Parse problems are returned as
// invalid; anything else aborts the request.
type setter[T any] func(ctx context.Context, s *Service, rec *T, raw any) error

// checker validates the merged record and may consult storage.
type checker[T any] func(ctx context.Context, s *Service, rec *T, errs *fieldErrors) error

// entitySpec is the table row driving create, update and delete for one
// entity type.
type entitySpec[T any] struct {
	entity       EntityType
	fields       map[string]setter[T]
	createFields []string
	updateFields []string
	defaults     func(rec *T) // create only
	check        checker[T]
	parseID      func(raw string) (any, bool)
	id           func(rec *T) any
	describe     func(rec *T) string
}

type executor interface {
	model() any
	create(ctx context.Context, s *Service, actor *permissions.Actor, fields Fields) (any, error)
	update(ctx context.Context, s *Service, actor *permissions.Actor, rawID string, fields Fields) (any, error)
	remove(ctx context.Context, s *Service, actor *permissions.Actor, rawID string) error
}

// Create validates fields against the entity's create whitelist, applies the
// create-time defaults and stores the record.
func (s *Service) Create(ctx context.Context, actor *permissions.Actor, entity EntityType, fields Fields) (any, error) {
	if err := s.authorize(actor, OpCreate); err != nil {
		return nil, err
	}
	exec, err := s.executor(entity)
	if err != nil {
		return nil, err
	}
	return exec.create(ctx, s, actor, fields)
}

// Update applies a partial update. Absent fields keep their value and nil
// clears optional ones; validation runs on the merged record.
func (s *Service) Update(ctx context.Context, actor *permissions.Actor, entity EntityType, id string, fields Fields) (any, error) {
	if err := s.authorize(actor, OpUpdate); err != nil {
		return nil, err
	}
	exec, err := s.executor(entity)
	if err != nil {
		return nil, err
	}
	return exec.update(ctx, s, actor, id, fields)
}

// Delete removes a record. Unknown and malformed ids are ErrNotFound.
func (s *Service) Delete(ctx context.Context, actor *permissions.Actor, entity EntityType, id string) error {
	if err := s.authorize(actor, OpDelete); err != nil {
		return err
	}
	exec, err := s.executor(entity)
	if err != nil {
		return err
	}
	return exec.remove(ctx, s, actor, id)
}

func (s *Service) executor(entity EntityType) (executor, error) {
	exec, ok := s.executors[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q: %w", entity, ErrNotFound)
	}
	return exec, nil
}

func (spec *entitySpec[T]) model() any {
	return new(T)
}

func (spec *entitySpec[T]) create(ctx context.Context, s *Service, actor *permissions.Actor, fields Fields) (any, error) {
	rec := new(T)
	errs, err := spec.apply(ctx, s, rec, fields, spec.createFields, OpCreate)
	if err != nil {
		return nil, err
	}
	if spec.defaults != nil {
		spec.defaults(rec)
	}
	if err := spec.validate(ctx, s, rec, errs); err != nil {
		return nil, err
	}

	if err := s.catalog.Create(ctx, rec); err != nil {
		return nil, translate(err, "create "+string(spec.entity))
	}

	saved, err := spec.reload(ctx, s, rec)
	if err != nil {
		return nil, err
	}
	s.auditor.LogChange(actorID(actor), entities.AuditEventCreate, string(spec.entity), spec.key(saved),
		"Created "+string(spec.entity)+" "+spec.describe(saved))
	return saved, nil
}

func (spec *entitySpec[T]) update(ctx context.Context, s *Service, actor *permissions.Actor, rawID string, fields Fields) (any, error) {
	rec, err := spec.load(ctx, s, rawID)
	if err != nil {
		return nil, err
	}

	if versioned, ok := any(rec).(entities.Versioned); ok {
		if raw, present := fields["version"]; present {
			expected, err := asVersion(raw)
			if err != nil {
				return nil, singleFieldError(string(spec.entity), "version", err.Error())
			}
			if expected != versioned.CurrentVersion() {
				return nil, fmt.Errorf("update %s %s: %w: version %d is stale, current is %d",
					spec.entity, rawID, ErrConflict, expected, versioned.CurrentVersion())
			}
			fields = maps.Clone(fields)
			delete(fields, "version")
		}
	}

	errs, err := spec.apply(ctx, s, rec, fields, spec.updateFields, OpUpdate)
	if err != nil {
		return nil, err
	}
	if err := spec.validate(ctx, s, rec, errs); err != nil {
		return nil, err
	}

	if err := s.catalog.Update(ctx, rec); err != nil {
		return nil, translate(err, "update "+string(spec.entity)+" "+rawID)
	}

	saved, err := spec.reload(ctx, s, rec)
	if err != nil {
		return nil, err
	}
	s.auditor.LogChange(actorID(actor), entities.AuditEventUpdate, string(spec.entity), spec.key(saved),
		"Updated "+string(spec.entity)+" "+spec.describe(saved))
	return saved, nil
}

func (spec *entitySpec[T]) remove(ctx context.Context, s *Service, actor *permissions.Actor, rawID string) error {
	rec, err := spec.load(ctx, s, rawID)
	if err != nil {
		return err
	}
	if err := s.catalog.Delete(ctx, rec); err != nil {
		return translate(err, "delete "+string(spec.entity)+" "+rawID)
	}
	s.auditor.LogDeletion(actorID(actor), string(spec.entity), spec.key(rec),
		"Deleted "+string(spec.entity)+" "+spec.describe(rec), rec)
	return nil
}

// apply runs the setters for every supplied field in name order. Fields
// outside allowed are reported, not applied.
func (spec *entitySpec[T]) apply(ctx context.Context, s *Service, rec *T, fields Fields, allowed []string, op Operation) (fieldErrors, error) {
	var errs fieldErrors
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		set, known := spec.fields[name]
		if !known {
			errs.add(name, "Unknown field.")
			continue
		}
		if !slices.Contains(allowed, name) {
			errs.add(name, fmt.Sprintf("This field cannot be set on %s.", op))
			continue
		}
		if err := errs.record(name, set(ctx, s, rec, fields[name])); err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, spec.entity, err)
		}
	}
	return errs, nil
}

func (spec *entitySpec[T]) validate(ctx context.Context, s *Service, rec *T, errs fieldErrors) error {
	if spec.check != nil {
		if err := spec.check(ctx, s, rec, &errs); err != nil {
			return translate(err, "validate "+string(spec.entity))
		}
	}
	return errs.asError(string(spec.entity))
}

func (spec *entitySpec[T]) load(ctx context.Context, s *Service, rawID string) (*T, error) {
	id, ok := spec.parseID(rawID)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", spec.entity, rawID, ErrNotFound)
	}
	rec := new(T)
	if err := s.catalog.Get(ctx, rec, id); err != nil {
		return nil, translate(err, string(spec.entity)+" "+rawID)
	}
	return rec, nil
}

func (spec *entitySpec[T]) reload(ctx context.Context, s *Service, rec *T) (*T, error) {
	saved := new(T)
	if err := s.catalog.Get(ctx, saved, spec.id(rec)); err != nil {
		return nil, translate(err, "reload "+string(spec.entity))
	}
	return saved, nil
}

func (spec *entitySpec[T]) key(rec *T) string {
	return fmt.Sprint(spec.id(rec))
}
