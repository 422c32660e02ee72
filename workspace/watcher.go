package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileWatcher polls the workspace root and reloads grammar files whose
// modification time changed.
type FileWatcher struct {
	workspace    *Workspace
	stopCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time

	// OnUpdate is called after a file was loaded again.
	OnUpdate func(f *File)
	// OnRemove is called after a file disappeared.
	OnRemove func(path string)
}

func NewFileWatcher(w *Workspace, interval time.Duration) *FileWatcher {
	if interval <= 0 {
		interval = 1 * time.Second
	}
	return &FileWatcher{
		workspace:    w,
		stopCh:       make(chan struct{}),
		pollInterval: interval,
		modTimes:     make(map[string]time.Time),
	}
}

func (fw *FileWatcher) Start() {
	go fw.run()
}

func (fw *FileWatcher) Stop() {
	close(fw.stopCh)
}

func (fw *FileWatcher) run() {
	ticker := time.NewTicker(fw.pollInterval)
	defer ticker.Stop()

	fw.scan()

	for {
		select {
		case <-fw.stopCh:
			return
		case <-ticker.C:
			fw.scan()
		}
	}
}

func (fw *FileWatcher) scan() {
	currentFiles := make(map[string]bool)
	root := fw.workspace.RootDir()

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsGrammarFile(path) {
			return nil
		}

		currentFiles[path] = true

		lastMod, known := fw.modTimes[path]
		if !known || info.ModTime().After(lastMod) {
			fw.modTimes[path] = info.ModTime()
			f, err := fw.workspace.ScanFile(path)
			if err != nil {
				log.Warningf("read %s: %v", path, err)
				return nil
			}
			if fw.OnUpdate != nil {
				fw.OnUpdate(f)
			}
		}
		return nil
	})

	for path := range fw.modTimes {
		if !currentFiles[path] {
			delete(fw.modTimes, path)
			fw.workspace.RemoveFile(path)
			if fw.OnRemove != nil {
				fw.OnRemove(path)
			}
		}
	}
}
