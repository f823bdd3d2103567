package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetExpire(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	hit, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got["a"])

	now = now.Add(2 * time.Minute)
	hit, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryStore_DeletePattern(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, KeyCourseVideos(3, 1), []int{1}, time.Minute)
	store.Set(ctx, KeyCourseVideos(3, 2), []int{1}, time.Minute)
	store.Set(ctx, KeyCourseVideos(4, 1), []int{1}, time.Minute)

	require.NoError(t, store.DeletePattern(ctx, PatternCourseVideos(3)))

	assert.False(t, store.Has(KeyCourseVideos(3, 1)))
	assert.False(t, store.Has(KeyCourseVideos(3, 2)))
	assert.True(t, store.Has(KeyCourseVideos(4, 1)))
}

func TestRemember_LoadsOnceThenHits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"go"}, nil
	}

	v, err := Remember(ctx, store, KeyCoursesAll, TTLCatalog, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, v)

	v, err = Remember(ctx, store, KeyCoursesAll, TTLCatalog, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, v)
	assert.Equal(t, 1, calls)
}

func TestRemember_LoadErrorNotCached(t *testing.T) {
	store := NewMemoryStore()
	_, err := Remember(context.Background(), store, "x", time.Minute, func() (int, error) {
		return 0, errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, store.Has("x"))
}

func TestPlanFor_CourseDeletedCoversEveryEnrolledUser(t *testing.T) {
	plan := PlanFor(Mutation{Kind: CourseDeleted, CourseID: 9, UserIDs: []uint{1, 2}})

	assert.Contains(t, plan.Keys, KeyCoursesAll)
	assert.Contains(t, plan.Keys, KeyStudentCourses(1))
	assert.Contains(t, plan.Keys, KeyStudentCourses(2))
	assert.Contains(t, plan.Keys, KeyUserEnrollments(2))
	assert.Contains(t, plan.Patterns, PatternCourseVideos(9))
}

func TestPlanFor_CourseChangedCoversEnrollmentLists(t *testing.T) {
	plan := PlanFor(Mutation{Kind: CourseChanged, CourseID: 3, UserIDs: []uint{4}})

	assert.Contains(t, plan.Keys, KeyStudentCourses(4))
	assert.Contains(t, plan.Keys, KeyUserEnrollments(4))
}

func TestPlanFor_EnrollmentChanged(t *testing.T) {
	plan := PlanFor(Mutation{Kind: EnrollmentChanged, CourseID: 5, UserIDs: []uint{7}})

	assert.ElementsMatch(t, []string{
		KeyReportProductSales,
		KeyStudentCourses(7),
		KeyUserEnrollments(7),
		KeyCourseVideos(5, 7),
	}, plan.Keys)
}

func TestInvalidator_Apply(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, KeyUserOrders(1), []int{}, time.Minute)
	store.Set(ctx, KeyReportOrderStatus, []int{}, time.Minute)
	store.Set(ctx, KeyUserOrders(2), []int{}, time.Minute)

	NewInvalidator(store).Apply(ctx, Mutation{Kind: OrderChanged, UserIDs: []uint{1}})

	assert.False(t, store.Has(KeyUserOrders(1)))
	assert.False(t, store.Has(KeyReportOrderStatus))
	assert.True(t, store.Has(KeyUserOrders(2)))
}

func TestTokenBlacklist(t *testing.T) {
	bl := NewTokenBlacklist(NewMemoryStore())
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "tok", time.Minute))
	revoked, err = bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
}
