package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailService_SendToAllBatches(t *testing.T) {
	testDB, _ := setupServiceTest(t)
	q := &fakeQueue{statuses: map[string]*queue.TaskStatus{}}
	svc := NewEmailService(repository.NewUserRepository(testDB), q)

	_, err := svc.SendToAll("hello", "")
	assert.ErrorIs(t, err, ErrEmptyEmail)
	_, err = svc.SendToAll("hello", "body")
	assert.ErrorIs(t, err, ErrNoRecipients)

	for i := 0; i < queue.MassEmailBatchSize+3; i++ {
		createUser(t, testDB, fmt.Sprintf("user%03d", i), model.RoleStudent, false)
	}

	result, err := svc.SendToAll("Term starts", "See you on Monday")
	require.NoError(t, err)
	assert.Equal(t, queue.MassEmailBatchSize+3, result.Recipients)
	assert.Equal(t, 2, result.Batches)
	require.Len(t, result.TaskIDs, 2)
	require.Len(t, q.batches, 2)
	assert.Len(t, q.batches[0].Recipients, queue.MassEmailBatchSize)
	assert.Len(t, q.batches[1].Recipients, 3)
	assert.Equal(t, 2, q.batches[1].Batch)

	q.statuses[result.TaskIDs[0]] = &queue.TaskStatus{ID: result.TaskIDs[0], Type: queue.TypeMassEmailBatch, State: "completed"}
	view, err := svc.Status(result.TaskIDs[0])
	require.NoError(t, err)
	assert.True(t, view.Ready)

	_, err = svc.Status("unknown")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestEmailService_EnqueueFailure(t *testing.T) {
	testDB, _ := setupServiceTest(t)
	q := &fakeQueue{err: errors.New("queue disabled")}
	svc := NewEmailService(repository.NewUserRepository(testDB), q)
	createUser(t, testDB, "reader", model.RoleStudent, false)

	result, err := svc.SendToAll("News", "Body")
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.TaskIDs)
}
