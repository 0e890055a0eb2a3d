package assets

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/anima2d/engine/core"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]AssetType{
		"shaders/vert.spv":   AssetTypeShader,
		"textures/crate.png": AssetTypeImage,
		"a.JPG":              AssetTypeNone,
		"b.webp":             AssetTypeImage,
		"notes.txt":          AssetTypeNone,
	}
	for path, want := range tests {
		if got := determineAssetType(path); got != want {
			t.Errorf("%s: got %s, want %s", path, got, want)
		}
	}
}

func TestInitializeAndLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "textures"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, filepath.Join(dir, "textures", "crate.png"))
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	am := NewAssetManager()
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	if n := len(am.Assets()); n != 1 {
		t.Fatalf("%d assets indexed, want 1", n)
	}

	img, err := am.DecodeImage("textures/crate.png")
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("bounds %v", img.Bounds())
	}
	info, _ := am.Resolve("textures/crate.png")
	if info.LastLoaded.IsZero() {
		t.Error("load time not recorded")
	}

	if _, err := am.DecodeImage("textures/missing.png"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("got %v, want ErrAssetNotFound", err)
	}
	if _, err := am.LoadShader("textures/crate.png"); err == nil {
		t.Error("an image loaded as a shader")
	}
}

func TestResolveIndexesFilesOutsideTheRoot(t *testing.T) {
	am := NewAssetManager()
	if err := am.Initialize(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "elsewhere.png")
	writeTestPNG(t, path)
	if _, err := am.DecodeImage(path); err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
}

func TestWatchPostsAssetChanged(t *testing.T) {
	core.EventInitialize()
	defer core.EventShutdown()

	dir := t.TempDir()
	am := NewAssetManager()
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	if err := am.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer am.Close()

	changed := make(chan string, 8)
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, t, func(ctx core.EventContext) bool {
		changed <- ctx.Data.(*core.AssetEvent).Path
		return true
	})

	path := filepath.Join(dir, "new.png")
	writeTestPNG(t, path)

	deadline := time.After(5 * time.Second)
	for {
		core.EventDispatch()
		select {
		case got := <-changed:
			if got != path {
				t.Errorf("changed %s, want %s", got, path)
			}
			if _, err := am.Resolve("new.png"); err != nil {
				t.Errorf("new file not indexed: %v", err)
			}
			return
		case <-deadline:
			t.Fatal("no asset change event")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
