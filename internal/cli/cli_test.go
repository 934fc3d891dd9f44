package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flyder-sync-service/internal/domain"
	"github.com/example/flyder-sync-service/internal/usecase"
)

type fakeSync struct {
	calls []domain.Window
	err   error
}

func (f *fakeSync) Execute(_ context.Context, w domain.Window) (domain.RunStats, error) {
	f.calls = append(f.calls, w)
	if f.err != nil {
		return domain.RunStats{}, f.err
	}
	return domain.RunStats{TotalFetched: 2, SyncedOrders: 1, FailedOrders: 1,
		Errors: []domain.RowError{{RecordID: "9", Message: "bad row"}}}, nil
}

type fakeMappings struct {
	list []domain.FranchiseMapping
	set  []domain.FranchiseMapping
}

func (f *fakeMappings) Execute(context.Context) ([]domain.FranchiseMapping, error) {
	return f.list, nil
}

type fakeSet struct{ m *fakeMappings }

func (f fakeSet) Execute(_ context.Context, m domain.FranchiseMapping) error {
	f.m.set = append(f.m.set, m)
	return nil
}

type harness struct {
	sync     *fakeSync
	mappings *fakeMappings
	closed   int
	out      *bytes.Buffer
}

func newTestRoot(t *testing.T, h *harness, args ...string) *cobra.Command {
	t.Helper()
	root := newRootCommand(func(context.Context, *RootOptions) (*Services, error) {
		return &Services{
			Sync:         h.sync,
			Range:        usecase.SyncRange{Sync: h.sync},
			List:         h.mappings,
			Set:          fakeSet{m: h.mappings},
			DefaultLimit: 250,
			Close:        func() error { h.closed++; return nil },
		}, nil
	})
	h.out = &bytes.Buffer{}
	root.SetOut(h.out)
	root.SetErr(h.out)
	root.SetArgs(args)
	return root
}

func TestCommandPresence(t *testing.T) {
	root := NewRootCommand()
	for _, path := range [][]string{{"run"}, {"bulk"}, {"mappings", "list"}, {"mappings", "set"}} {
		sub, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.Equal(t, "text", root.PersistentFlags().Lookup("format").DefValue)
}

func TestRunCommand(t *testing.T) {
	h := &harness{sync: &fakeSync{}, mappings: &fakeMappings{}}
	root := newTestRoot(t, h, "run", "--start", "2024-01-01", "--end", "2024-01-31", "--format", "json")
	require.NoError(t, root.Execute())

	require.Len(t, h.sync.calls, 1)
	w := h.sync.calls[0]
	assert.Equal(t, domain.EndOfDay(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)), w.End)
	assert.Equal(t, 250, w.Limit, "default limit from config applies when --limit is absent")
	assert.Equal(t, 1, h.closed)

	var resp domain.SyncResponse
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Progress.SyncedOrders)
}

func TestRunCommandExplicitLimitAndText(t *testing.T) {
	h := &harness{sync: &fakeSync{}, mappings: &fakeMappings{}}
	root := newTestRoot(t, h, "run", "--start", "2024-01-01", "--end", "2024-01-31", "--limit", "0", "--offset", "10")
	require.NoError(t, root.Execute())
	require.Len(t, h.sync.calls, 1)
	assert.Zero(t, h.sync.calls[0].Limit)
	assert.Equal(t, 10, h.sync.calls[0].Offset)
	assert.Contains(t, h.out.String(), "synced:    1")
	assert.Contains(t, h.out.String(), "order 9: bad row")
}

func TestRunCommandExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  error
		want int
	}{
		{name: "invalid window", args: []string{"run", "--start", "2024-02-01", "--end", "2024-01-01"}, want: ExitCommandError},
		{name: "bad format", args: []string{"run", "--start", "2024-01-01", "--end", "2024-01-02", "--format", "xml"}, want: ExitCommandError},
		{
			name: "fatal run",
			args: []string{"run", "--start", "2024-01-01", "--end", "2024-01-02"},
			err:  &domain.FatalError{Stage: domain.StateFinalCommit, Err: domain.ErrCommit},
			want: ExitFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{sync: &fakeSync{err: tt.err}, mappings: &fakeMappings{}}
			err := newTestRoot(t, h, tt.args...).Execute()
			require.Error(t, err)
			assert.Equal(t, tt.want, GetExitCode(err))
		})
	}
}

func TestBulkCommand(t *testing.T) {
	h := &harness{sync: &fakeSync{}, mappings: &fakeMappings{}}
	root := newTestRoot(t, h, "bulk", "--from", "2024-01-01", "--to", "2024-01-14", "--step", "week", "--format", "json")
	require.NoError(t, root.Execute())
	assert.Len(t, h.sync.calls, 2)

	var report usecase.RangeReport
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &report))
	assert.Equal(t, 2, report.Windows)
	assert.Equal(t, 2, report.Totals.SyncedOrders)
}

func TestBulkCommandReportsFailedWindows(t *testing.T) {
	h := &harness{sync: &fakeSync{err: &domain.FatalError{Stage: domain.StateFetching, Err: domain.ErrQuery}}, mappings: &fakeMappings{}}
	err := newTestRoot(t, h, "bulk", "--from", "2024-01-01", "--to", "2024-01-14", "--step", "week").Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, h.out.String(), "FAILED 2024-01-01 .. 2024-01-07")
}

func TestBulkCommandRejectsBadStep(t *testing.T) {
	h := &harness{sync: &fakeSync{}, mappings: &fakeMappings{}}
	err := newTestRoot(t, h, "bulk", "--from", "2024-01-01", "--to", "2024-01-14", "--step", "day").Execute()
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, h.sync.calls)
}

func TestMappingsCommands(t *testing.T) {
	h := &harness{sync: &fakeSync{}, mappings: &fakeMappings{list: []domain.FranchiseMapping{{FlyderBusinessID: 7, RepaartFranchiseID: "fr-7"}}}}
	require.NoError(t, newTestRoot(t, h, "mappings", "list").Execute())
	assert.Equal(t, "7\tfr-7\n", h.out.String())

	require.NoError(t, newTestRoot(t, h, "mappings", "set", "8", "fr-8").Execute())
	assert.Equal(t, []domain.FranchiseMapping{{FlyderBusinessID: 8, RepaartFranchiseID: "fr-8"}}, h.mappings.set)

	err := newTestRoot(t, h, "mappings", "set", "eight", "fr-8").Execute()
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
}
