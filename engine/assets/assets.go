package assets

import (
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
)

var ErrAssetNotFound = errors.New("asset not found")

type AssetInfo struct {
	ID         uuid.UUID
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

/**
 * @brief Indexes the files under the asset directory and, when watching, posts
 * EVENT_CODE_ASSET_CHANGED for every file that is created or written.
 */
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
	}
	am.registerLoader(AssetTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(AssetTypeImage, &loaders.ImageLoader{})
	return am
}

// Initialize indexes everything under assetsDir. A missing directory is not an error, it
// just leaves the index empty.
func (am *AssetManager) Initialize(assetsDir string) error {
	am.root = assetsDir
	if _, err := os.Stat(assetsDir); errors.Is(err, os.ErrNotExist) {
		core.LogWarn("asset directory %s does not exist", assetsDir)
		return nil
	}
	return filepath.Walk(assetsDir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// Watch starts a watcher on the asset directory and all of its sub-directories.
func (am *AssetManager) Watch() error {
	if am.fsnotify != nil {
		return nil
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating asset watcher")
	}
	am.fsnotify = fsWatch
	if err := am.watchRecursive(am.root); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return err
	}
	am.done = make(chan struct{})
	am.stopped = make(chan struct{})
	go am.start()
	core.LogInfo("Watching %s for asset changes.", am.root)
	return nil
}

// Close stops the watcher, if any, and waits for it to exit.
func (am *AssetManager) Close() error {
	if am.fsnotify == nil {
		return nil
	}
	close(am.done)
	<-am.stopped
	am.fsnotify = nil
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Resolve returns the index entry for name, which may be relative to the asset directory.
// Files outside the directory are indexed on first use.
func (am *AssetManager) Resolve(name string) (AssetInfo, error) {
	candidates := []string{name, filepath.Join(am.root, name)}

	am.mutex.RLock()
	for _, path := range candidates {
		if asset, ok := am.assets[path]; ok {
			am.mutex.RUnlock()
			return asset, nil
		}
	}
	am.mutex.RUnlock()

	for _, path := range candidates {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() && am.handleFileEvent(path) {
			am.mutex.RLock()
			defer am.mutex.RUnlock()
			return am.assets[path], nil
		}
	}
	return AssetInfo{}, errors.Wrapf(ErrAssetNotFound, "%s", name)
}

// Load an asset using the appropriate loader
func (am *AssetManager) Load(name string) (interface{}, error) {
	asset, err := am.Resolve(name)
	if err != nil {
		return nil, err
	}
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return nil, errors.Newf("no loader registered for asset type %s", asset.Type)
	}
	data, err := loader.Load(asset.Path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset.LastLoaded = time.Now()
	am.assets[asset.Path] = asset
	am.mutex.Unlock()
	return data, nil
}

// DecodeImage has the signature the renderer expects for texture loading.
func (am *AssetManager) DecodeImage(name string) (*image.RGBA, error) {
	data, err := am.Load(name)
	if err != nil {
		return nil, err
	}
	img, ok := data.(*image.RGBA)
	if !ok {
		return nil, errors.Newf("%s is not an image", name)
	}
	return img, nil
}

func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	data, err := am.Load(name)
	if err != nil {
		return nil, err
	}
	code, ok := data.([]uint32)
	if !ok {
		return nil, errors.Newf("%s is not a shader", name)
	}
	return code, nil
}

// Assets returns a copy of the index.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	return out
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("watching %s: %s", e.Name, err)
			}
		}
		return
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if am.handleFileEvent(e.Name) {
			core.EventPost(core.EventContext{
				Type: core.EVENT_CODE_ASSET_CHANGED,
				Data: &core.AssetEvent{Path: e.Name},
			})
		}
	}
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes path and reports whether it is a known asset type.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	asset, ok := am.assets[path]
	if !ok {
		asset = AssetInfo{ID: uuid.New(), Path: path, Type: assetType}
	}
	am.assets[path] = asset
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeShader
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	default:
		return AssetTypeNone
	}
}
