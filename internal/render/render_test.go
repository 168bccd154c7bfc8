package render

import (
	"bytes"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

func testCertificate() Certificate {
	return Certificate{
		IssuanceID: "0c1de4a2-9cbb-44af-a1f4-2a9a3a3d9f01",
		Name:       "Ann Lee",
		Program:    "Data Engineering",
		IssuedAt:   time.Date(2025, time.June, 12, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderProducesFixedCanvasPNG(t *testing.T) {
	r, err := NewPNG()
	require.NoError(t, err)

	out, err := r.Render(testCertificate())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, canvasWidth, img.Bounds().Dx())
	assert.Equal(t, canvasHeight, img.Bounds().Dy())

	// Text and border must actually land on the canvas.
	inked := 0
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			br, bg, bb, _ := background.RGBA()
			if cr != br || cg != bg || cb != bb {
				inked++
			}
		}
	}
	assert.Greater(t, inked, 5000)
}

func TestRenderIsDeterministic(t *testing.T) {
	r, err := NewPNG()
	require.NoError(t, err)

	first, err := r.Render(testCertificate())
	require.NoError(t, err)
	second, err := r.Render(testCertificate())
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
}

func TestRenderDistinctCertificatesDiffer(t *testing.T) {
	r, err := NewPNG()
	require.NoError(t, err)

	a := testCertificate()
	b := testCertificate()
	b.IssuanceID = "f6d3c0de-0000-4000-8000-000000000002"

	outA, err := r.Render(a)
	require.NoError(t, err)
	outB, err := r.Render(b)
	require.NoError(t, err)

	assert.False(t, bytes.Equal(outA, outB))
}

func TestRenderWrapsLongValues(t *testing.T) {
	r, err := NewPNG()
	require.NoError(t, err)

	cert := testCertificate()
	cert.Name = strings.Repeat("Maximiliana Worthington-Blackwood ", 4)
	cert.Program = "Advanced Distributed Systems Engineering and Large Scale Infrastructure Operations"

	out, err := r.Render(cert)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, canvasWidth, img.Bounds().Dx())
}

func TestRenderConcurrent(t *testing.T) {
	r, err := NewPNG()
	require.NoError(t, err)

	const workers = 8
	results := make([][]byte, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Render(testCertificate())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.True(t, bytes.Equal(results[0], results[i]))
	}
}

func TestWrap(t *testing.T) {
	r, err := NewPNG()
	require.NoError(t, err)
	faces, err := r.newFaces()
	require.NoError(t, err)

	t.Run("empty text yields no lines", func(t *testing.T) {
		assert.Nil(t, wrap(faces.body, "   ", fixed.I(400)))
	})

	t.Run("short text stays on one line", func(t *testing.T) {
		lines := wrap(faces.body, "Ann Lee", fixed.I(400))
		assert.Equal(t, []string{"Ann Lee"}, lines)
	})

	t.Run("long text breaks on word boundaries", func(t *testing.T) {
		lines := wrap(faces.body, "alpha beta gamma delta epsilon zeta", fixed.I(120))
		require.Greater(t, len(lines), 1)
		assert.Equal(t, "alpha beta gamma delta epsilon zeta", strings.Join(lines, " "))
	})
}
