package workflow

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureMachine_Lifecycle(t *testing.T) {
	m := NewCaptureMachine()
	require.Equal(t, StateIdle, m.State())
	assert.Equal(t, []Trigger{TriggerStartAnalysis}, m.PermittedTriggers())

	require.NoError(t, m.Fire(TriggerStartAnalysis))
	assert.Equal(t, StateAnalyzing, m.State())
	assert.False(t, m.CanFire(TriggerStartAnalysis))
	assert.True(t, m.CanFire(TriggerFinishAnalysis))

	require.NoError(t, m.Fire(TriggerFinishAnalysis))
	assert.Equal(t, StateIdle, m.State())
}

func TestCaptureMachine_RejectsSecondStart(t *testing.T) {
	m := NewCaptureMachine()
	require.NoError(t, m.Fire(TriggerStartAnalysis))

	err := m.Fire(TriggerStartAnalysis)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateAnalyzing, m.State())
}

func TestCaptureMachine_FinishWhileIdle(t *testing.T) {
	m := NewCaptureMachine()
	assert.ErrorIs(t, m.Fire(TriggerFinishAnalysis), ErrInvalidTransition)
}

func TestCaptureMachine_ConcurrentStartsAdmitOne(t *testing.T) {
	m := NewCaptureMachine()

	var wg sync.WaitGroup
	var admitted int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Fire(TriggerStartAnalysis) == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted)
}

func TestBuilder_BuildIsolatesMachines(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateIdle).Permit(TriggerStartAnalysis, StateAnalyzing)
	first := b.Build(StateIdle)

	b.Configure(StateAnalyzing).Permit(TriggerFinishAnalysis, StateIdle)
	second := b.Build(StateAnalyzing)

	require.NoError(t, first.Fire(TriggerStartAnalysis))
	assert.False(t, first.CanFire(TriggerFinishAnalysis))
	assert.True(t, second.CanFire(TriggerFinishAnalysis))
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Configure(State("BOGUS")) })
	assert.Panics(t, func() { NewBuilder().Build(State("")) })
	assert.Panics(t, func() {
		NewBuilder().Configure(StateIdle).Permit(TriggerStartAnalysis, State("NOWHERE"))
	})
}
