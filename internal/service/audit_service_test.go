package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
)

func TestClearLogs_LeavesSingleProvenanceRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sup := f.seedUser(t, "chief", "secret1", model.RoleSupervisor)

	for i := 0; i < 5; i++ {
		f.audit.Record(ctx, &sup.ID, model.ActionLogin, "login")
	}

	n, err := f.audit.ClearLogs(ctx, dto.ClearLogsRequest{UserID: sup.ID, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	logs, err := f.audit.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionClearLogs, logs[0].ActionType)
	assert.Contains(t, logs[0].Description, "Cleared 5 log entries")
	assert.Contains(t, logs[0].Description, "chief")
	assert.Equal(t, "chief", logs[0].Username)
}

func TestClearLogs_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := f.seedUser(t, "op", "secret1", model.RoleOperator)
	sup := f.seedUser(t, "sup", "secret1", model.RoleSupervisor)
	f.audit.Record(ctx, &op.ID, model.ActionLogin, "login")

	_, err := f.audit.ClearLogs(ctx, dto.ClearLogsRequest{UserID: sup.ID, Confirm: false})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	_, err = f.audit.ClearLogs(ctx, dto.ClearLogsRequest{UserID: op.ID, Confirm: true})
	assert.True(t, apierror.IsKind(err, apierror.KindForbidden))

	_, err = f.audit.ClearLogs(ctx, dto.ClearLogsRequest{UserID: 31337, Confirm: true})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	assert.Equal(t, int64(1), f.count(t, &model.ActionLog{}))
}

func TestRecord_WithoutUserAndFilteredList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "lee", "secret1", model.RoleUser)

	f.audit.Record(ctx, nil, model.ActionAddItem, "anonymous add")
	f.audit.Record(ctx, &u.ID, model.ActionLogin, "lee logged in")

	all, err := f.audit.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "lee", all[0].Username)
	assert.Empty(t, all[1].Username)
	assert.Nil(t, all[1].UserID)

	mine, err := f.audit.List(ctx, &u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ptr(u.ID), mine[0].UserID)
}

func TestRecord_FailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Unknown user id violates the foreign key; Record must not panic or fail.
	assert.NotPanics(t, func() {
		f.audit.Record(ctx, ptr(int64(9999)), model.ActionLogin, "ghost")
	})
	assert.Zero(t, f.count(t, &model.ActionLog{}))
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "pat", "secret1", model.RoleUser)
	f.audit.Record(ctx, &u.ID, model.ActionLogin, `said "hi", then left`)

	var buf bytes.Buffer
	require.NoError(t, f.audit.ExportCSV(ctx, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "username", "action_type", "description", "timestamp"}, records[0])
	assert.Equal(t, "pat", records[1][1])
	assert.Equal(t, model.ActionLogin, records[1][2])
	assert.Equal(t, `said "hi", then left`, records[1][3])
}
