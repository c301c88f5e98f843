package pipeline

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/ocr"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, dir, "a.png", twentyCandleChart())
	writePNG(t, dir, "b.png", blankChart(300, 200))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.png"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0755))
	return dir
}

func TestListImages(t *testing.T) {
	dir := batchDir(t)

	paths, err := ListImages(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, names)
}

func TestListImages_MissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBatch_RunDir(t *testing.T) {
	dir := batchDir(t)
	b := NewBatch(newRecognizer(t, ocr.Unavailable("")), BatchOptions{MaxWorkers: 2, Timeout: 30 * time.Second})

	results, err := b.RunDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.png", results[0].ImageName)
	assert.True(t, results[0].OK())
	assert.Len(t, results[0].DataPoints, 20)

	assert.Equal(t, "b.png", results[1].ImageName)
	assert.True(t, results[1].OK())
	assert.Empty(t, results[1].DataPoints)

	assert.Equal(t, "c.png", results[2].ImageName)
	assert.False(t, results[2].OK())
	assert.Zero(t, results[2].Confidence)
}

func TestBatch_RunDirMissing(t *testing.T) {
	b := NewBatch(newRecognizer(t, ocr.Unavailable("")), DefaultBatchOptions())
	_, err := b.RunDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBatch_PreservesInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"z.png", "m.png", "a.png", "q.png", "b.png"} {
		paths = append(paths, writePNG(t, dir, name, blankChart(200, 100)))
	}

	var mu sync.Mutex
	seen := make(map[int]string)
	b := NewBatch(newRecognizer(t, ocr.Unavailable("")), BatchOptions{
		MaxWorkers: 3,
		OnResult: func(i int, r ohlc.Result) {
			mu.Lock()
			seen[i] = r.ImageName
			mu.Unlock()
		},
	})

	results := b.Run(context.Background(), paths)
	require.Len(t, results, len(paths))
	for i, p := range paths {
		assert.Equal(t, filepath.Base(p), results[i].ImageName)
		assert.Equal(t, filepath.Base(p), seen[i])
	}
}

func TestBatch_Timeout(t *testing.T) {
	dir := t.TempDir()
	slow := writePNG(t, dir, "slow.png", blankChart(200, 100))

	release := make(chan struct{})
	defer close(release)
	stuck := ocr.Available(ocr.RecognizerFunc(func(context.Context, image.Image) ([]ocr.Detection, error) {
		<-release
		return nil, nil
	}))

	b := NewBatch(newRecognizer(t, stuck), BatchOptions{MaxWorkers: 1, Timeout: 50 * time.Millisecond})
	results := b.Run(context.Background(), []string{slow})

	require.Len(t, results, 1)
	assert.Equal(t, "slow.png", results[0].ImageName)
	assert.Contains(t, results[0].Error, ErrTimeout.Error())
	assert.Empty(t, results[0].DataPoints)
}

func TestBatch_PanicIsolated(t *testing.T) {
	dir := t.TempDir()
	first := writePNG(t, dir, "first.png", blankChart(200, 100))
	second := writePNG(t, dir, "second.png", blankChart(200, 100))

	var mu sync.Mutex
	calls := 0
	flaky := ocr.Available(ocr.RecognizerFunc(func(context.Context, image.Image) ([]ocr.Detection, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			panic("engine exploded")
		}
		return nil, nil
	}))

	b := NewBatch(newRecognizer(t, flaky), BatchOptions{MaxWorkers: 1, Timeout: 10 * time.Second})
	results := b.Run(context.Background(), []string{first, second})

	require.Len(t, results, 2)
	assert.Contains(t, results[0].Error, "panic")
	assert.True(t, results[1].OK())
}

func TestBatch_Empty(t *testing.T) {
	b := NewBatch(newRecognizer(t, ocr.Unavailable("")), BatchOptions{})
	assert.Empty(t, b.Run(context.Background(), nil))
}
