package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupServiceTest(t *testing.T) (*gorm.DB, *cache.MemoryStore) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	require.NoError(t, db.SeedReferenceData(testDB))
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB, cache.NewMemoryStore()
}

// fakeQueue records enqueued payloads; err makes every enqueue fail.
type fakeQueue struct {
	mu       sync.Mutex
	err      error
	welcome  []queue.WelcomeEmailPayload
	batches  []queue.MassEmailBatchPayload
	clicks   []queue.ShortLinkClickPayload
	exports  []queue.HighSpenderExportPayload
	avg      int
	cleanups int
	statuses map[string]*queue.TaskStatus
	seq      int
}

func (q *fakeQueue) next() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.seq++
	return fmt.Sprintf("task-%d", q.seq), nil
}

func (q *fakeQueue) EnqueueWelcomeEmail(p queue.WelcomeEmailPayload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, err := q.next()
	if err == nil {
		q.welcome = append(q.welcome, p)
	}
	return id, err
}

func (q *fakeQueue) EnqueueMassEmailBatch(p queue.MassEmailBatchPayload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, err := q.next()
	if err == nil {
		q.batches = append(q.batches, p)
	}
	return id, err
}

func (q *fakeQueue) EnqueueShortLinkClick(p queue.ShortLinkClickPayload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, err := q.next()
	if err == nil {
		q.clicks = append(q.clicks, p)
	}
	return id, err
}

func (q *fakeQueue) EnqueueAvgOrderValue() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, err := q.next()
	if err == nil {
		q.avg++
	}
	return id, err
}

func (q *fakeQueue) EnqueueHighSpenderExport(p queue.HighSpenderExportPayload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, err := q.next()
	if err == nil {
		q.exports = append(q.exports, p)
	}
	return id, err
}

func (q *fakeQueue) EnqueueDeleteInactiveRooms() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id, err := q.next()
	if err == nil {
		q.cleanups++
	}
	return id, err
}

func (q *fakeQueue) TaskStatus(taskID string) (*queue.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if st, ok := q.statuses[taskID]; ok {
		return st, nil
	}
	return nil, queue.ErrTaskNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var phoneSeq = 200000000

func createUser(t *testing.T, testDB *gorm.DB, username string, role model.UserRole, staff bool) *model.User {
	phoneSeq++
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Phone:        fmt.Sprintf("09%09d", phoneSeq),
		Role:         role,
		IsStaff:      staff,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createBook(t *testing.T, testDB *gorm.DB, name, price string, stock int) *model.Book {
	book := &model.Book{Name: name, Price: model.MustMoney(price), Stock: stock}
	require.NoError(t, testDB.Create(book).Error)
	return book
}

func createCourse(t *testing.T, testDB *gorm.DB, teacherID uint, name string, price int64) *model.Course {
	course := &model.Course{Name: name, TeacherID: teacherID, Price: price, IsFree: price == 0}
	require.NoError(t, testDB.Omit("Teacher").Create(course).Error)
	return course
}
