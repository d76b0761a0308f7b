package static

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// DirSource serves files from a file system, by default a local directory.
type DirSource struct {
	FS fs.FS
}

// NewDirSource serves the directory dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{FS: os.DirFS(dir)}
}

// Open implements Source. Directories do not exist as files.
func (s *DirSource) Open(_ context.Context, name string) (*File, error) {
	f, err := s.FS.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, ErrNotExist
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotExist
	}

	return &File{
		Body:    f,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
