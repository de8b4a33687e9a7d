package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/stretchr/testify/require"
)

func TestAuditSinkRecordsSystemEntry(t *testing.T) {
	st := newTestStore(t)
	sink := newAuditSink(st)

	sink.Record(context.Background(), "some_action", domain.AuditSuccess, nil, map[string]any{"n": 1})
	sink.Record(context.Background(), "some_action", domain.AuditFailure, errors.New("disk full"), nil)

	entries := auditEntries(t, st, "some_action")
	require.Len(t, entries, 2)

	failure, success := entries[0], entries[1]
	if failure.Result != domain.AuditFailure {
		failure, success = success, failure
	}

	require.Equal(t, domain.SystemActor, success.Actor)
	require.Nil(t, success.Error)
	require.Equal(t, float64(1), success.Metadata["n"])
	require.True(t, success.CreatedAt.Equal(testNow))

	require.Equal(t, domain.SystemActor, failure.Actor)
	require.NotNil(t, failure.Error)
	require.Equal(t, "disk full", *failure.Error)
	require.Nil(t, failure.Metadata)
}

func TestAuditSinkSurvivesCancelledContext(t *testing.T) {
	st := newTestStore(t)
	sink := newAuditSink(st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink.Record(ctx, "cancelled_job", domain.AuditFailure, context.Canceled, nil)
	require.Len(t, auditEntries(t, st, "cancelled_job"), 1)
}

func TestAuditSinkSwallowsWriteFailure(t *testing.T) {
	base := newTestStore(t)
	logger, buf := bufferLogger()
	sink := &AuditSink{
		Store:  &faultyStore{Store: base, auditErr: errInjected},
		Logger: logger,
		Now:    fixedClock(testNow),
	}

	require.NotPanics(t, func() {
		sink.Record(context.Background(), "x", domain.AuditFailure, errors.New("job broke"), nil)
	})
	out := buf.String()
	require.Contains(t, out, "failed to write audit entry")
	require.Contains(t, out, "job broke")
	require.Contains(t, out, errInjected.Error())
}
