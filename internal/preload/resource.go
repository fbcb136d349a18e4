package preload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/sfnt"
	_ "golang.org/x/image/webp"
)

type Kind string

const (
	KindImage Kind = "image"
	KindFont  Kind = "font"
	KindData  Kind = "data"
)

// Resource is one asset to warm before the page is shown.
type Resource struct {
	Name  string
	Kind  Kind
	Fetch func(ctx context.Context) error
}

// KindOf guesses a resource kind from its extension.
func KindOf(name string) Kind {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return KindImage
	case ".ttf", ".otf":
		return KindFont
	}
	return KindData
}

// FileResource reads path and checks that images and fonts decode.
func FileResource(p string) Resource {
	kind := KindOf(p)
	return Resource{
		Name: filepath.Base(p),
		Kind: kind,
		Fetch: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			return verify(kind, data)
		},
	}
}

// HTTPResource GETs url; any non-2xx status is an error.
func HTTPResource(client *http.Client, url string) Resource {
	if client == nil {
		client = http.DefaultClient
	}
	kind := KindOf(url)
	return Resource{
		Name: url,
		Kind: kind,
		Fetch: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode/100 != 2 {
				return fmt.Errorf("preload: %s: %s", url, resp.Status)
			}
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			return verify(kind, data)
		},
	}
}

// Parse turns a config entry into a resource: http(s) URLs are fetched,
// anything else is read from disk.
func Parse(entry string, client *http.Client) Resource {
	if strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://") {
		return HTTPResource(client, entry)
	}
	return FileResource(entry)
}

func verify(kind Kind, data []byte) error {
	switch kind {
	case KindImage:
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("preload: decode image: %w", err)
		}
	case KindFont:
		if _, err := sfnt.Parse(data); err != nil {
			return fmt.Errorf("preload: parse font: %w", err)
		}
	}
	return nil
}
