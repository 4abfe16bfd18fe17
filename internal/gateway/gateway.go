// Package gateway implements the entity mutation gateway: load a record,
// apply a sparse patch, persist, and report a typed result. It is generic
// over the entity and its patch shape so User and Contract share one
// implementation instead of duplicating the create/patch/delete branches.
package gateway

import (
	"context"
	"errors"

	"github.com/lucasmbarros/contracts-api/internal/storage"
)

// Store is the per-entity persistence capability set the gateway needs.
// Get must return storage.ErrNotFound when no record has the id.
type Store[E any] interface {
	Get(ctx context.Context, id int) (E, error)
	Insert(ctx context.Context, e E) (E, error)
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, id int) error
}

// Config wires an entity kind into the gateway. Build and Apply carry the
// entity-specific validation; CheckConflict and CheckDependents are optional.
type Config[E any, P any] struct {
	Store Store[E]

	// Build constructs a new entity from the create input, validating it.
	Build func(ctx context.Context, in P) (E, *Error)

	// Apply overwrites the attributes whose patch fields are set.
	Apply func(e *E, in P) *Error

	// CheckConflict runs before insert; return an AlreadyExists error to
	// reject the create without writing.
	CheckConflict func(ctx context.Context, e E) *Error

	// CheckDependents runs before delete; return a HasDependents error to
	// block the delete without writing.
	CheckDependents func(ctx context.Context, id int) *Error

	// Messages for lookup and delete results, e.g. "User not found.".
	NotFoundMessage string
	DeletedMessage  string
}

type Gateway[E any, P any] struct {
	cfg Config[E, P]
}

// Result reports the outcome of a delete.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func New[E any, P any](cfg Config[E, P]) *Gateway[E, P] {
	return &Gateway[E, P]{cfg: cfg}
}

// Create validates the input, rejects conflicts, and persists a new record.
// Failed validations issue zero writes.
func (g *Gateway[E, P]) Create(ctx context.Context, in P) (E, *Error) {
	var zero E

	e, gerr := g.cfg.Build(ctx, in)
	if gerr != nil {
		return zero, gerr
	}

	if g.cfg.CheckConflict != nil {
		if gerr := g.cfg.CheckConflict(ctx, e); gerr != nil {
			return zero, gerr
		}
	}

	stored, err := g.cfg.Store.Insert(ctx, e)
	if err != nil {
		return zero, Unexpected(err)
	}

	return stored, nil
}

// Patch loads the record, applies the set fields, and commits. Fields
// absent from the patch are left unchanged; an empty patch changes nothing.
func (g *Gateway[E, P]) Patch(ctx context.Context, id int, in P) (E, *Error) {
	var zero E

	e, err := g.cfg.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, NotFound(g.cfg.NotFoundMessage)
		}
		return zero, Unexpected(err)
	}

	if gerr := g.cfg.Apply(&e, in); gerr != nil {
		return zero, gerr
	}

	if err := g.cfg.Store.Update(ctx, e); err != nil {
		return zero, Unexpected(err)
	}

	return e, nil
}

// Delete removes the record unless it is absent or still has dependents.
func (g *Gateway[E, P]) Delete(ctx context.Context, id int) (Result, *Error) {
	if _, err := g.cfg.Store.Get(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, NotFound(g.cfg.NotFoundMessage)
		}
		return Result{}, Unexpected(err)
	}

	if g.cfg.CheckDependents != nil {
		if gerr := g.cfg.CheckDependents(ctx, id); gerr != nil {
			return Result{}, gerr
		}
	}

	if err := g.cfg.Store.Delete(ctx, id); err != nil {
		return Result{}, Unexpected(err)
	}

	return Result{Success: true, Message: g.cfg.DeletedMessage}, nil
}
