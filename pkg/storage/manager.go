package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

var (
	managerMu   sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect boots the local disk and, when S3_BUCKET is set, the s3 disk.
// STORAGE_DISK selects the default; it must name a booted disk.
func Connect(ctx context.Context) error {
	local, err := NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	if err != nil {
		return err
	}
	RegisterDisk(local)

	if config.StorageS3Bucket() != "" {
		d, err := NewS3Disk(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			URL:      config.StorageS3URL(),
		})
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			RegisterDisk(d)
		}
	}

	name := config.StorageDefault()
	if _, err := Use(name); err != nil {
		return err
	}
	managerMu.Lock()
	defaultDisk = name
	managerMu.Unlock()
	logger.Info("storage: ready", "default", name)
	return nil
}

// RegisterDisk adds or replaces a disk under d.Name().
func RegisterDisk(d Disk) {
	managerMu.Lock()
	disks[d.Name()] = d
	managerMu.Unlock()
}

// SetDefault selects the disk returned by Default. Tests use it with a
// LocalDisk under t.TempDir().
func SetDefault(d Disk) {
	RegisterDisk(d)
	managerMu.Lock()
	defaultDisk = d.Name()
	managerMu.Unlock()
}

// Use returns the named disk.
func Use(name string) (Disk, error) {
	managerMu.RLock()
	d, ok := disks[name]
	managerMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the STORAGE_DISK disk, or nil before Connect.
func Default() Disk {
	managerMu.RLock()
	defer managerMu.RUnlock()
	return disks[defaultDisk]
}

// Local returns the local disk when it has been booted.
func Local() (*LocalDisk, bool) {
	d, err := Use("local")
	if err != nil {
		return nil, false
	}
	l, ok := d.(*LocalDisk)
	return l, ok
}
