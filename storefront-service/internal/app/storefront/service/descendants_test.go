package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescendantResolver_Leaf(t *testing.T) {
	store := newFakeCategoryStore()
	leaf := store.add("boots", nil)
	resolver := NewDescendantResolver(store, &recordingReporter{}, time.Second)

	ids, err := resolver.Resolve(context.Background(), leaf.ID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{leaf.ID}, ids)
}

func TestDescendantResolver_Closure(t *testing.T) {
	store := newFakeCategoryStore()
	root := store.add("womens", nil)
	shoes := store.add("shoes", &root)
	bags := store.add("bags", &root)
	boots := store.add("boots", &shoes)
	chelsea := store.add("chelsea", &boots)
	unrelated := store.add("mens", nil)
	unrelatedChild := store.add("ties", &unrelated)
	resolver := NewDescendantResolver(store, &recordingReporter{}, time.Second)

	ids, err := resolver.Resolve(context.Background(), root.ID)

	require.NoError(t, err)
	// уровень за уровнем, внутри уровня по имени
	assert.Equal(t, []uuid.UUID{root.ID, bags.ID, shoes.ID, boots.ID, chelsea.ID}, ids)
	assert.NotContains(t, ids, unrelated.ID)
	assert.NotContains(t, ids, unrelatedChild.ID)
	// одно обращение на уровень плюс пустой последний
	assert.Equal(t, 4, store.childrenCalls)
}

func TestDescendantResolver_SubtreeOnly(t *testing.T) {
	store := newFakeCategoryStore()
	root := store.add("womens", nil)
	shoes := store.add("shoes", &root)
	store.add("bags", &root)
	boots := store.add("boots", &shoes)
	resolver := NewDescendantResolver(store, &recordingReporter{}, time.Second)

	ids, err := resolver.Resolve(context.Background(), shoes.ID)

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{shoes.ID, boots.ID}, ids)
}

func TestDescendantResolver_CycleTerminates(t *testing.T) {
	store := newFakeCategoryStore()
	a := store.add("a", nil)
	b := store.add("b", &a)
	store.setParent(a.ID, &b.ID)
	reporter := &recordingReporter{}
	resolver := NewDescendantResolver(store, reporter, time.Second)

	ids, err := resolver.Resolve(context.Background(), a.ID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids)
	assert.Equal(t, []entity.IntegrityKind{entity.IntegrityCycle}, reporter.kinds())
	assert.Equal(t, a.ID, reporter.warnings[0].CategoryID)
	assert.Equal(t, operationResolveDescendants, reporter.warnings[0].Operation)
}

func TestDescendantResolver_SelfParent(t *testing.T) {
	store := newFakeCategoryStore()
	a := store.add("a", nil)
	store.setParent(a.ID, &a.ID)
	reporter := &recordingReporter{}
	resolver := NewDescendantResolver(store, reporter, time.Second)

	ids, err := resolver.Resolve(context.Background(), a.ID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids)
	assert.Equal(t, []entity.IntegrityKind{entity.IntegritySelfParent}, reporter.kinds())
}

func TestDescendantResolver_Walk_SeveralRoots(t *testing.T) {
	store := newFakeCategoryStore()
	womens := store.add("womens", nil)
	mens := store.add("mens", nil)
	store.add("dresses", &womens)
	store.add("ties", &mens)
	resolver := NewDescendantResolver(store, &recordingReporter{}, time.Second)

	discovered, err := resolver.Walk(context.Background(), []uuid.UUID{womens.ID, mens.ID, womens.ID}, "test")

	require.NoError(t, err)
	assert.Equal(t, []string{"dresses", "ties"}, slugs(discovered))
}

func TestDescendantResolver_StoreFailure(t *testing.T) {
	store := newFakeCategoryStore()
	root := store.add("womens", nil)
	store.err = errors.New("too many connections")
	resolver := NewDescendantResolver(store, &recordingReporter{}, time.Second)

	ids, err := resolver.Resolve(context.Background(), root.ID)

	assert.Nil(t, ids)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDescendantResolver_Cancellation(t *testing.T) {
	store := newFakeCategoryStore()
	root := store.add("womens", nil)
	store.block = true
	resolver := NewDescendantResolver(store, &recordingReporter{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, root.ID)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
