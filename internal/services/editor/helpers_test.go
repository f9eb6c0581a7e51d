package editor

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/pdf"
	"github.com/ternarybob/pdfdesk/internal/services/pdf/pdftest"
	"github.com/ternarybob/pdfdesk/internal/storage/memory"
)

var (
	sizeA = models.PageSize{Width: 300, Height: 400}
	sizeB = models.PageSize{Width: 500, Height: 600}
	sizeC = models.PageSize{Width: 200, Height: 250}
)

func newTestService(t *testing.T, configure func(*common.Config)) (*Service, *pdftest.Renderer) {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Undo.Backend = "memory"
	config.Sessions.EvictionSchedule = ""
	if configure != nil {
		configure(config)
	}

	logger := arbor.NewLogger()
	pdfEditor := pdf.NewEditor(logger)
	renderer := pdftest.NewRenderer()
	svc := NewService(pdfEditor, renderer, pdf.NewComposer(pdfEditor, logger), memory.NewSnapshotStorage(), nil, config, logger)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, renderer
}

func openTestSession(t *testing.T, svc *Service, sizes ...models.PageSize) *Session {
	t.Helper()
	s, err := svc.Open(context.Background(), "test.pdf", pdftest.NewDocument(t, sizes...))
	require.NoError(t, err)
	return s.(*Session)
}

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pointer(typ models.PointerEventType, x, y float64) models.PointerEvent {
	return models.PointerEvent{Type: typ, ClientX: x, ClientY: y}
}
