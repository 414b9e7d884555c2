package assets

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/voxelforge/lumen/engine/assets/loaders"
	"github.com/voxelforge/lumen/engine/core"
	"github.com/voxelforge/lumen/engine/scene"
)

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeShader
	ResourceTypeImage
	ResourceTypeModel
)

type AssetInfo struct {
	Path       string
	Type       ResourceType
	LastLoaded time.Time
}

// ChangeFunc is notified when a watched asset file is created or
// rewritten, with the path relative to the assets directory.
type ChangeFunc func(relPath string, assetType ResourceType)

// AssetManager indexes the assets directory and watches it for changes so
// shaders and textures can be hot-reloaded during development.
type AssetManager struct {
	dir    string
	assets map[string]AssetInfo
	mutex  sync.RWMutex

	shaders  loaders.ShaderLoader
	textures loaders.TextureLoader
	models   loaders.ModelLoader

	onChange []ChangeFunc

	watcher  *fsnotify.Watcher
	done     chan struct{}
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &AssetManager{
		assets:  make(map[string]AssetInfo),
		watcher: watcher,
		done:    make(chan struct{}),
	}, nil
}

// Initialize indexes every asset under dir and starts the watch loop.
func (am *AssetManager) Initialize(dir string) error {
	am.dir = dir

	if err := am.watchRecursive(dir); err != nil {
		return err
	}
	go am.watchLoop()

	core.LogInfo("Asset manager initialized with %d assets under %s.", am.Count(), dir)
	return nil
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	return am.watcher.Close()
}

// OnChange subscribes to create/write events on indexed assets. Callbacks
// run on the watcher goroutine and must not block.
func (am *AssetManager) OnChange(fn ChangeFunc) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.onChange = append(am.onChange, fn)
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// LoadShader reads the compiled SPIR-V for the named shader, e.g.
// "base.vert" resolves to shaders/base.vert.spv.
func (am *AssetManager) LoadShader(name string) ([]byte, error) {
	return am.shaders.Load(am.resolve(filepath.Join("shaders", name+".spv"), ResourceTypeShader))
}

// LoadTexture decodes the named image file under textures/.
func (am *AssetManager) LoadTexture(name string) (*loaders.ImageData, error) {
	return am.textures.Load(am.resolve(filepath.Join("textures", name), ResourceTypeImage))
}

// LoadModel decodes the named OBJ file under models/.
func (am *AssetManager) LoadModel(name string) (*scene.Node, error) {
	return am.models.Load(am.resolve(filepath.Join("models", name), ResourceTypeModel))
}

// resolve marks the asset as loaded and returns its absolute path. Unknown
// paths are returned as-is and fail in the loader with a precise error.
func (am *AssetManager) resolve(relPath string, want ResourceType) string {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	full := filepath.Join(am.dir, relPath)
	info, ok := am.assets[relPath]
	if !ok {
		core.LogWarn("asset %s is not indexed, loading directly", relPath)
		return full
	}
	if info.Type != want {
		core.LogWarn("asset %s has type %d, expected %d", relPath, info.Type, want)
	}
	info.LastLoaded = time.Now()
	am.assets[relPath] = info
	return full
}

func (am *AssetManager) watchRecursive(dir string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return filepath.Walk(dir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.watcher.Add(walkPath)
		}
		am.indexFile(walkPath)
		return nil
	})
}

func (am *AssetManager) watchLoop() {
	for {
		select {
		case event, ok := <-am.watcher.Events:
			if !ok {
				return
			}
			am.handleEvent(event)
		case err, ok := <-am.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)
		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// New directories join the watch so assets dropped in later are
		// picked up too.
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := am.watchRecursive(event.Name); err != nil {
				core.LogError("watching new directory %s: %s", event.Name, err)
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if assetType := am.indexFile(event.Name); assetType != ResourceTypeNone {
			am.notify(event.Name, assetType)
		}
	}
	if event.Op&fsnotify.Remove != 0 {
		am.removeAsset(event.Name)
	}
}

// indexFile records a file in the asset index, keyed by its path relative
// to the assets directory.
func (am *AssetManager) indexFile(path string) ResourceType {
	assetType := determineAssetType(path)
	if assetType == ResourceTypeNone {
		return ResourceTypeNone
	}

	rel, err := filepath.Rel(am.dir, path)
	if err != nil {
		rel = path
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path: rel,
		Type: assetType,
	}
	return assetType
}

func (am *AssetManager) removeAsset(path string) {
	rel, err := filepath.Rel(am.dir, path)
	if err != nil {
		rel = path
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, rel)
}

func (am *AssetManager) notify(path string, assetType ResourceType) {
	rel, err := filepath.Rel(am.dir, path)
	if err != nil {
		rel = path
	}
	am.mutex.RLock()
	callbacks := am.onChange
	am.mutex.RUnlock()
	for _, fn := range callbacks {
		fn(rel, assetType)
	}
}

func determineAssetType(path string) ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp":
		return ResourceTypeImage
	case ".obj", ".mtl":
		return ResourceTypeModel
	default:
		return ResourceTypeNone
	}
}
