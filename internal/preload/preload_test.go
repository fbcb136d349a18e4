package preload

import (
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(name string, err error) Resource {
	return Resource{Name: name, Kind: KindData, Fetch: func(context.Context) error { return err }}
}

func TestSequentialInOrder(t *testing.T) {
	var seen []string
	resources := []Resource{fixed("a", nil), fixed("b", errors.New("boom")), fixed("c", nil)}

	var reports []Progress
	final, err := (&Preloader{}).Run(context.Background(), resources, func(p Progress) {
		reports = append(reports, p)
		seen = append(seen, p.Last)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, Progress{Done: 3, Total: 3, Failed: 1, Last: "c"}, final)
	assert.InDelta(t, 1.0/3, reports[0].Fraction(), 1e-9)
	assert.True(t, final.Complete())
}

func TestEmptyBatchIsComplete(t *testing.T) {
	final, err := (&Preloader{}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, final.Fraction())
	assert.True(t, final.Complete())
}

func TestConcurrentRespectsLimit(t *testing.T) {
	var running, peak int32
	res := make([]Resource, 12)
	for i := range res {
		res[i] = Resource{Name: "r", Fetch: func(context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}}
	}

	final, err := (&Preloader{Concurrency: 3}).Run(context.Background(), res, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, final.Done)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestCancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := []Resource{
		{Name: "first", Fetch: func(context.Context) error { cancel(); return nil }},
		fixed("second", nil),
	}
	final, err := (&Preloader{}).Run(ctx, res, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, final.Done)
}

func TestTimeoutBoundsEachFetch(t *testing.T) {
	slow := Resource{Name: "slow", Fetch: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	final, err := (&Preloader{Timeout: 10 * time.Millisecond}).Run(context.Background(), []Resource{slow}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, final.Failed)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindImage, KindOf("hero.PNG"))
	assert.Equal(t, KindImage, KindOf("https://x.test/a.webp"))
	assert.Equal(t, KindFont, KindOf("inter.ttf"))
	assert.Equal(t, KindData, KindOf("projects.json"))
}

func TestFileResourceVerifiesImages(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	f, err := os.Create(good)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))

	assert.NoError(t, FileResource(good).Fetch(context.Background()))
	assert.Error(t, FileResource(bad).Fetch(context.Background()))
	assert.Error(t, FileResource(filepath.Join(dir, "missing.json")).Fetch(context.Background()))
}

func TestHTTPResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ok := Parse(srv.URL+"/data.json", srv.Client())
	assert.Equal(t, KindData, ok.Kind)
	assert.NoError(t, ok.Fetch(context.Background()))
	assert.Error(t, Parse(srv.URL+"/missing.json", srv.Client()).Fetch(context.Background()))
}
