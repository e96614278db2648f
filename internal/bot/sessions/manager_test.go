package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin_StartsChoosingKind(t *testing.T) {
	m := NewManager()

	m.Begin(100500)

	assert.Equal(t, PhaseChoosingKind, m.Phase(100500))
}

func TestBegin_SupersedesExistingSession(t *testing.T) {
	m := NewManager()

	m.Begin(1)
	_, err := m.ChooseKind(1, models.KindDocument)
	require.NoError(t, err)
	require.Equal(t, PhaseAwaitingDocument, m.Phase(1))

	m.Begin(1)

	assert.Equal(t, PhaseChoosingKind, m.Phase(1))
}

func TestChooseKind_LegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		kind models.Kind
		want Phase
	}{
		{name: "document", kind: models.KindDocument, want: PhaseAwaitingDocument},
		{name: "photo", kind: models.KindPhoto, want: PhaseAwaitingPhoto},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			m.Begin(1)

			got, err := m.ChooseKind(1, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, m.Phase(1))
		})
	}
}

func TestChooseKind_WithoutSession(t *testing.T) {
	m := NewManager()

	got, err := m.ChooseKind(1, models.KindDocument)

	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.Equal(t, PhaseIdle, got)
	assert.Equal(t, PhaseIdle, m.Phase(1))
}

func TestChooseKind_FromAwaitingPhaseClearsSession(t *testing.T) {
	m := NewManager()
	m.Begin(1)
	_, err := m.ChooseKind(1, models.KindPhoto)
	require.NoError(t, err)

	got, err := m.ChooseKind(1, models.KindPhoto)

	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.Equal(t, PhaseIdle, got)
	assert.Equal(t, PhaseIdle, m.Phase(1))
}

func TestChooseKind_UnknownKindClearsSession(t *testing.T) {
	m := NewManager()
	m.Begin(1)

	got, err := m.ChooseKind(1, models.Kind("archive"))

	assert.ErrorIs(t, err, common.ErrUnknownKind)
	assert.Equal(t, PhaseIdle, got)
	assert.Equal(t, PhaseIdle, m.Phase(1))
}

func TestPhase_UnknownUserIsIdle(t *testing.T) {
	m := NewManager()

	assert.Equal(t, PhaseIdle, m.Phase(404))
}

func TestClear_ReportsWhetherSessionExisted(t *testing.T) {
	m := NewManager()
	m.Begin(1)

	assert.True(t, m.Clear(1))
	assert.Equal(t, PhaseIdle, m.Phase(1))
	assert.False(t, m.Clear(1))
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	m := NewManager()

	m.Begin(1)
	m.Begin(2)
	_, err := m.ChooseKind(2, models.KindPhoto)
	require.NoError(t, err)

	assert.Equal(t, PhaseChoosingKind, m.Phase(1))
	assert.Equal(t, PhaseAwaitingPhoto, m.Phase(2))

	m.Clear(1)
	assert.Equal(t, PhaseIdle, m.Phase(1))
	assert.Equal(t, PhaseAwaitingPhoto, m.Phase(2))
}

func TestExpireIdle_DropsOnlyStaleSessions(t *testing.T) {
	m := NewManager()

	current := time.Now()
	m.now = func() time.Time { return current }

	m.Begin(1)

	current = current.Add(45 * time.Minute)
	m.Begin(2)

	n := m.ExpireIdle(30 * time.Minute)

	assert.Equal(t, 1, n)
	assert.Equal(t, PhaseIdle, m.Phase(1))
	assert.Equal(t, PhaseChoosingKind, m.Phase(2))
}

func TestExpireIdle_EmptyManager(t *testing.T) {
	m := NewManager()

	assert.Equal(t, 0, m.ExpireIdle(time.Minute))
}

func TestRunJanitor_ZeroTimeoutReturnsImmediately(t *testing.T) {
	m := NewManager()

	done := make(chan struct{})
	go func() {
		m.RunJanitor(context.Background(), 0, logging.NewDefault())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not return for zero timeout")
	}
}

func TestRunJanitor_ExpiresAndStopsOnCancel(t *testing.T) {
	m := NewManager()
	m.Begin(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunJanitor(ctx, 10*time.Millisecond, logging.NewDefault())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return m.Phase(1) == PhaseIdle
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop on context cancel")
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "choosing_kind", PhaseChoosingKind.String())
	assert.Equal(t, "awaiting_document", PhaseAwaitingDocument.String())
	assert.Equal(t, "awaiting_photo", PhaseAwaitingPhoto.String())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Begin(id)
			_, _ = m.ChooseKind(id, models.KindDocument)
			_ = m.Phase(id)
			m.Clear(id)
		}(int64(i))
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.Equal(t, PhaseIdle, m.Phase(i))
	}
}
