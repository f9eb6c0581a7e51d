package editor

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/export"
	"github.com/ternarybob/pdfdesk/internal/services/pdf/pdftest"
)

func TestService_OpenRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, func(c *common.Config) { c.Editor.MaxUploadBytes = 4096 })

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello, this is plain text")},
		{"png", signaturePNG(t)},
		{"too large", append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{' '}, 5000)...)},
		{"broken pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Open(ctx, "x.pdf", tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.KindInvalidInput), "got %v", err)
		})
	}
	assert.Empty(t, svc.List())
}

func TestService_OpenGetListClose(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	first := openTestSession(t, svc, sizeA, sizeB, sizeC)
	second := openTestSession(t, svc, sizeA)

	view := first.View()
	assert.Equal(t, 3, view.PageCount)
	assert.Equal(t, 1, view.CurrentPage)
	assert.Equal(t, models.ExportIdle, view.Export.Status)
	assert.Equal(t, sizeB, view.Pages[1].Size)

	got, err := svc.Get(first.ID())
	require.NoError(t, err)
	assert.Equal(t, first.ID(), got.ID())

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID(), list[0].ID)
	assert.Equal(t, 3, list[0].PageCount)

	require.NoError(t, svc.CloseSession(ctx, second.ID()))
	_, err = svc.Get(second.ID())
	assert.True(t, errors.Is(err, models.KindNotFound))
	assert.True(t, errors.Is(svc.CloseSession(ctx, second.ID()), models.KindNotFound))
}

func TestService_EvictIdle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, func(c *common.Config) { c.Sessions.IdleTimeout = "50ms" })

	idle := openTestSession(t, svc, sizeA)
	time.Sleep(80 * time.Millisecond)
	active := openTestSession(t, svc, sizeA)

	assert.Equal(t, 1, svc.EvictIdle(ctx))
	_, err := svc.Get(idle.ID())
	assert.True(t, errors.Is(err, models.KindNotFound))
	_, err = svc.Get(active.ID())
	assert.NoError(t, err)
}

func TestService_EvictIdleSkipsServiceLockWhileSessionBusy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	busy := openTestSession(t, svc, sizeA)
	other := openTestSession(t, svc, sizeA)
	data := pdftest.NewDocument(t, sizeB)

	// holding the session lock stands in for a long bake
	busy.lock()
	evicted := make(chan int, 1)
	go func() { evicted <- svc.EvictIdle(ctx) }()
	time.Sleep(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		if _, err := svc.Get(other.ID()); err != nil {
			done <- err
			return
		}
		_, err := svc.Open(ctx, "late.pdf", data)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		busy.unlock()
		t.Fatal("Get and Open waited on a busy session")
	}
	busy.unlock()

	assert.Equal(t, 0, <-evicted)
	assert.Len(t, svc.List(), 3)
}

func TestService_StartSchedulesEviction(t *testing.T) {
	svc, _ := newTestService(t, func(c *common.Config) {
		c.Sessions.EvictionSchedule = "* * * * * *"
		c.Sessions.IdleTimeout = "1ms"
	})
	s := openTestSession(t, svc, sizeA)

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	require.Eventually(t, func() bool {
		_, err := svc.Get(s.ID())
		return err != nil
	}, 3*time.Second, 50*time.Millisecond)
}

func TestExport_ThreePageTextScenario(t *testing.T) {
	ctx := context.Background()
	svc, renderer := newTestService(t, nil)
	s := openTestSession(t, svc, sizeA, sizeA, sizeA)

	_, err := s.AddText(2, models.Point{X: 50, Y: 50}, "Hi", "")
	require.NoError(t, err)

	res, err := s.Export(ctx, models.ExportRequest{Filename: "out"})
	require.NoError(t, err)
	assert.Equal(t, "out.pdf", res.Filename)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, 3, pdftest.PageCount(t, res.Data))

	calls := renderer.Calls()
	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, i+1, c.Page)
	}
}

func TestExport_PlainWhenNothingToFlatten(t *testing.T) {
	ctx := context.Background()
	svc, renderer := newTestService(t, nil)
	s := openTestSession(t, svc, sizeA, sizeB)
	require.NoError(t, s.RotatePage(ctx, 1))

	res, err := s.Export(ctx, models.ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, s.Document(), res.Data)
	assert.Equal(t, "edited.pdf", res.Filename)
	assert.Empty(t, renderer.Calls())

	_, _ = s.AddText(1, models.Point{}, "x", "")
	no := false
	res, err = s.Export(ctx, models.ExportRequest{Flatten: &no})
	require.NoError(t, err)
	assert.Equal(t, s.Document(), res.Data, "flatten=false keeps the vector document")
}

func TestExport_ImagesValidatesPages(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	s := openTestSession(t, svc, sizeA, sizeB)

	_, err := s.Export(ctx, models.ExportRequest{Format: models.ExportImages, Pages: []int{3}})
	assert.True(t, errors.Is(err, models.KindInvalidInput))
	_, err = s.Export(ctx, models.ExportRequest{Format: "tiff"})
	assert.True(t, errors.Is(err, models.KindInvalidInput))

	res, err := s.Export(ctx, models.ExportRequest{Format: models.ExportImages})
	require.NoError(t, err)
	assert.Equal(t, "application/zip", res.ContentType)
}

func TestExport_TrackedLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	s := openTestSession(t, svc, sizeA)
	_, _ = s.AddText(1, models.Point{X: 5, Y: 5}, "x", "")

	_, err := s.ExportResult()
	assert.True(t, errors.Is(err, models.KindNotFound))

	require.NoError(t, s.StartExport(models.ExportRequest{Filename: "done.pdf"}))
	require.Eventually(t, func() bool {
		return s.ExportState().Status == models.ExportDone
	}, 5*time.Second, 10*time.Millisecond)

	state := s.ExportState()
	assert.Equal(t, "done.pdf", state.Filename)
	assert.NotNil(t, state.StartedAt)
	assert.NotNil(t, state.FinishedAt)

	res, err := s.ExportResult()
	require.NoError(t, err)
	assert.Equal(t, state.Size, len(res.Data))

	s.DismissExport()
	assert.Equal(t, models.ExportIdle, s.ExportState().Status)
}

func TestExport_TrackedFailure(t *testing.T) {
	svc, renderer := newTestService(t, nil)
	renderer.FailOn[1] = true
	s := openTestSession(t, svc, sizeA)
	s.SetFilter(models.FilterGrayscale)

	require.NoError(t, s.StartExport(models.ExportRequest{}))
	require.Eventually(t, func() bool {
		return s.ExportState().Status == models.ExportFailed
	}, 5*time.Second, 10*time.Millisecond)

	assert.NotEmpty(t, s.ExportState().Error)
	_, err := s.ExportResult()
	assert.True(t, errors.Is(err, models.KindRenderFailure))

	s.DismissExport()
	assert.Equal(t, models.ExportIdle, s.ExportState().Status)
}

func TestExport_StateCapture(t *testing.T) {
	tests := []struct {
		name     string
		snapshot bool
		static   bool
	}{
		{"snapshot at trigger", true, true},
		{"live per page", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, func(c *common.Config) { c.Editor.SnapshotExportState = tt.snapshot })
			s := openTestSession(t, svc, sizeA, sizeB)
			_, _ = s.AddText(1, models.Point{}, "before", "")

			s.mu.Lock()
			job, err := s.prepareExportLocked(models.ExportRequest{})
			s.mu.Unlock()
			require.NoError(t, err)

			_, isStatic := job.source.(export.StaticSource)
			assert.Equal(t, tt.static, isStatic)

			_, _ = s.AddText(1, models.Point{}, "after", "")
			st, err := job.source.PageState(1)
			require.NoError(t, err)
			if tt.snapshot {
				assert.Len(t, st.Annotations.Texts, 1, "frozen at trigger")
			} else {
				assert.Len(t, st.Annotations.Texts, 2, "reads the live store")
			}
		})
	}
}
