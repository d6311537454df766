package modreg

import "time"

// DirEntry is one entry returned by Listdir.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Stat describes a path's metadata, the minimum a guest `os.stat` needs.
type Stat struct {
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// VFS is the mount-point capability set a host-provided filesystem must
// implement to be reachable from guest `import` (§4.6). Concrete backends
// (browser persistent store, in-memory store) are out of scope; this is
// only the contract.
type VFS interface {
	Stat(path string) (Stat, error)
	Open(path string) ([]byte, error)
	Write(path string, data []byte) error
	Listdir(path string) ([]DirEntry, error)
	Mkdir(path string) error
	Unlink(path string) error
	Rename(oldPath, newPath string) error
}

// Attach mounts vfs at root. Only one mount is supported, and only before
// guest user code runs (§4.6: "the attach happens after VM init but before
// any user code runs"). Files under the mount become importable via the
// "/lib" path entry.
func (r *Registry) Attach(vfs VFS) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userCodeStarted {
		return ErrUserCodeAlreadyRan
	}

	if r.mounted {
		return ErrAlreadyMounted
	}

	r.vfs = vfs
	r.mounted = true
	r.path = append(r.path, "/lib")

	return nil
}

// FS returns the mounted filesystem and whether one is attached.
func (r *Registry) FS() (VFS, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.vfs, r.mounted
}
