package storage

import (
	"os"
	"path/filepath"
)

// LocalFiles returns the files m occupies on disk: the store path plus, for SQLite,
// the WAL sidecar files when they exist.
func LocalFiles(m Local) []string {
	files := []string{m.Path()}
	if _, ok := m.(*SQLiteMedium); ok {
		for _, suffix := range []string{"-wal", "-shm"} {
			if _, err := os.Stat(m.Path() + suffix); err == nil {
				files = append(files, m.Path()+suffix)
			}
		}
	}
	return files
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths contribute 0; other stat and walk errors are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		n, err := dirSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
