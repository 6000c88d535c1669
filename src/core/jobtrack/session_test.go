package jobtrack

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	sched     *manualScheduler
	backend   *scriptedBackend
	storeView *fakeStoreView
	editView  *fakeEditView
	session   *Session
}

func newSessionFixture(replies ...statusReply) *sessionFixture {
	f := &sessionFixture{
		sched:     newManualScheduler(),
		backend:   &scriptedBackend{replies: replies},
		storeView: &fakeStoreView{},
		editView:  newFakeEditView(),
	}
	f.session = NewSession(
		NewSubmitter(f.backend),
		NewPoller(f.backend, WithScheduler(f.sched)),
		map[JobKind]Handler{
			KindStoreCreation: &StoreCreationHandler{View: f.storeView},
			KindProductEdit:   NewProductEditHandler(f.editView, f.sched, DefaultEditCloseDelay),
		},
	)
	return f
}

func TestSessionStoreCreationScenario(t *testing.T) {
	f := newSessionFixture(
		replyJob(StatusPending, 0),
		replyJob(StatusRunning, 45),
		statusReply{job: &Job{Status: StatusCompleted, Progress: 100, Result: json.RawMessage(`{"mode":"demo"}`)}},
	)

	h, err := f.session.CreateStore(context.Background(), "a shop selling bamboo toothbrushes")
	require.NoError(t, err)
	assert.True(t, f.storeView.busy)

	f.sched.Advance(3 * DefaultPollInterval)

	assert.Equal(t, []string{PhasePreparing, PhasePreparing, PhaseInProgress, PhaseFinalizing}, f.storeView.phases)
	require.Len(t, f.storeView.results, 1)
	assert.False(t, f.storeView.busy)
	assert.Equal(t, 1, f.storeView.refreshes)
	assert.Equal(t, 3, f.backend.Queries())

	f.sched.Advance(10 * DefaultPollInterval)
	assert.Equal(t, 3, f.backend.Queries())
	assert.False(t, h.Active())

	_, ok := f.session.Active(KindStoreCreation)
	assert.False(t, ok)
}

func TestSessionEditFailureScenario(t *testing.T) {
	f := newSessionFixture(
		replyJob(StatusRunning, 30),
		statusReply{job: &Job{Status: StatusFailed, Progress: 60, Error: "rate limited"}},
	)

	_, err := f.session.EditProduct(context.Background(), "42", "rename to Deluxe Mug")
	require.NoError(t, err)
	assert.False(t, f.editView.submitEnabled)

	f.sched.Advance(2 * DefaultPollInterval)

	require.NotEmpty(t, f.editView.notifications)
	last := f.editView.notifications[len(f.editView.notifications)-1]
	assert.Contains(t, last.Message, "rate limited")
	assert.True(t, f.editView.open)
	assert.True(t, f.editView.submitEnabled)

	// The editor can resubmit straight away.
	_, err = f.session.EditProduct(context.Background(), "42", "rename to Deluxe Mug")
	assert.NoError(t, err)
}

func TestSessionBlankPromptNeverReachesBackend(t *testing.T) {
	f := newSessionFixture(replyJob(StatusRunning, 0))

	_, err := f.session.CreateStore(context.Background(), "   ")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, f.backend.Starts())
	require.Len(t, f.storeView.notifications, 1)
	assert.Equal(t, LevelWarning, f.storeView.notifications[0].Level)
	assert.Empty(t, f.storeView.phases, "validation must not touch progress")
	assert.False(t, f.storeView.busy)
}

func TestSessionSubmissionErrorReturnsToIdle(t *testing.T) {
	f := newSessionFixture(replyJob(StatusRunning, 0))
	f.backend.startErr = &APIError{StatusCode: 500, Message: "Shopify credentials not configured"}

	_, err := f.session.CreateStore(context.Background(), "vintage cameras")

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.False(t, f.storeView.busy)
	require.Len(t, f.storeView.notifications, 1)
	assert.Equal(t, "Shopify credentials not configured", f.storeView.notifications[0].Message)

	f.backend.startErr = nil
	_, err = f.session.CreateStore(context.Background(), "vintage cameras")
	assert.NoError(t, err, "kind is released after a failed submission")
}

func TestSessionRefusesSecondJobOfSameKind(t *testing.T) {
	f := newSessionFixture(replyJob(StatusRunning, 10))

	_, err := f.session.CreateStore(context.Background(), "plant shop")
	require.NoError(t, err)

	_, err = f.session.CreateStore(context.Background(), "another plant shop")
	assert.ErrorIs(t, err, ErrJobInFlight)
	assert.Equal(t, 1, f.backend.Starts())

	_, err = f.session.EditProduct(context.Background(), "7", "add a summer discount")
	assert.NoError(t, err, "different kinds may run side by side")
}

func TestSessionCancelAbandonsEdit(t *testing.T) {
	f := newSessionFixture(replyJob(StatusRunning, 50), replyJob(StatusCompleted, 100))

	h, err := f.session.EditProduct(context.Background(), "42", "new description")
	require.NoError(t, err)
	f.sched.Advance(DefaultPollInterval)

	f.session.Cancel(KindProductEdit)
	f.sched.Advance(10 * DefaultPollInterval)

	assert.False(t, h.Active())
	assert.Equal(t, StateCancelled, h.State())
	assert.Equal(t, 1, f.backend.Queries())
	assert.True(t, f.editView.open)
	assert.Empty(t, f.editView.reloaded)

	_, ok := f.session.Active(KindProductEdit)
	assert.False(t, ok)
}

func TestSessionEditStartedDuringCloseDelayKeepsEditorOpen(t *testing.T) {
	f := newSessionFixture(
		statusReply{job: &Job{Status: StatusCompleted, Progress: 100, Result: json.RawMessage(`{"product_id":"42"}`)}},
	)

	_, err := f.session.EditProduct(context.Background(), "42", "add a blue variant")
	require.NoError(t, err)
	f.sched.Advance(DefaultPollInterval)
	require.True(t, f.editView.open)

	// second edit before the first one's editor has closed
	_, err = f.session.EditProduct(context.Background(), "42", "lower the price")
	require.NoError(t, err)

	f.sched.Advance(DefaultEditCloseDelay)
	assert.True(t, f.editView.open)
	assert.Empty(t, f.editView.reloaded)

	f.sched.Advance(DefaultEditCloseDelay)
	assert.False(t, f.editView.open)
	assert.Equal(t, []string{"42"}, f.editView.reloaded)
}
