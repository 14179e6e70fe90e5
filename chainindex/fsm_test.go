package chainindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestControlFSMAcceptsEveryNamedEvent(t *testing.T) {
	events := []string{
		fsmEventAppendBlock,
		fsmEventRollback,
		fsmEventResumeSync,
		fsmEventCollectGarbage,
		fsmEventGetDiagnostics,
	}

	for _, event := range events {
		machine := newControlFSM()
		require.NoError(t, canFire(context.Background(), machine, event))
		require.Equal(t, fsmStateReady, machine.Current())
	}
}

func TestControlFSMRejectsUnknownEvent(t *testing.T) {
	machine := newControlFSM()
	err := canFire(context.Background(), machine, "DropTables")
	require.Error(t, err)
}

func TestControlFSMStaysReadyAcrossRepeatedEvents(t *testing.T) {
	machine := newControlFSM()
	require.NoError(t, canFire(context.Background(), machine, fsmEventAppendBlock))
	require.NoError(t, canFire(context.Background(), machine, fsmEventRollback))
	require.NoError(t, canFire(context.Background(), machine, fsmEventAppendBlock))
	require.Equal(t, fsmStateReady, machine.Current())
}
