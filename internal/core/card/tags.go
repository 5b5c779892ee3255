// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"log/slog"

	"github.com/taibuivan/livingatlas/pkg/query"
)

// # Tag Reconciler

// TagStore is the slice of the writer transaction used by the reconciler.
type TagStore interface {
	// ExistingTags returns the subset of labels already in the vocabulary.
	ExistingTags(context context.Context, labels []string) ([]string, error)

	// InsertTags adds labels to the vocabulary, skipping labels that already exist.
	InsertTags(context context.Context, labels []string) error

	// ClearCardTags removes every tag link of the card.
	ClearCardTags(context context.Context, cardID int64) error

	// LinkCardTags links the card to every label.
	LinkCardTags(context context.Context, cardID int64, labels []string) error
}

// ParseTags splits a comma-separated list into distinct, trimmed, non-empty
// labels in first-seen order. Labels compare case-sensitively.
func ParseTags(raw string) []string {
	tokens := query.StringSlice(raw)
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tokens))
	labels := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, duplicate := seen[token]; duplicate {
			continue
		}
		seen[token] = struct{}{}
		labels = append(labels, token)
	}
	return labels
}

// Partition splits submitted labels into those missing from existing and
// those already present. Order of submitted is preserved in both.
func Partition(submitted, existing []string) (fresh, known []string) {
	vocabulary := make(map[string]struct{}, len(existing))
	for _, label := range existing {
		vocabulary[label] = struct{}{}
	}

	for _, label := range submitted {
		if _, ok := vocabulary[label]; ok {
			known = append(known, label)
			continue
		}
		fresh = append(fresh, label)
	}
	return fresh, known
}

// Reconciler links a card to its submitted tags, growing the vocabulary as needed.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler constructs a [Reconciler].
func NewReconciler(logger *slog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

/*
Reconcile makes the card's tag links equal the parsed tag list.

Description: With replace set every prior link is removed first, so the
final link set is exactly the submitted set. New labels are inserted
before linking. Any store error aborts and must roll back the caller's
transaction.

Parameters:
  - context: context.Context
  - store: TagStore (bound to the writer transaction)
  - cardID: int64
  - raw: string (comma-separated tag list, may be empty)
  - replace: bool (true on card update)

Returns:
  - []string: The linked labels
  - error: Store failures
*/
func (reconciler *Reconciler) Reconcile(context context.Context, store TagStore, cardID int64, raw string, replace bool) ([]string, error) {
	if replace {
		if err := store.ClearCardTags(context, cardID); err != nil {
			return nil, err
		}
	}

	labels := ParseTags(raw)
	if len(labels) == 0 {
		return nil, nil
	}

	existing, err := store.ExistingTags(context, labels)
	if err != nil {
		return nil, err
	}

	fresh, known := Partition(labels, existing)
	if len(fresh) > 0 {
		if err := store.InsertTags(context, fresh); err != nil {
			return nil, err
		}
	}

	if err := store.LinkCardTags(context, cardID, labels); err != nil {
		return nil, err
	}

	reconciler.logger.Debug("card_tags_reconciled",
		slog.Int64("card_id", cardID),
		slog.Int("new", len(fresh)),
		slog.Int("existing", len(known)),
	)

	return labels, nil
}
