// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package resource

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Populate adds root and everything below it on the local filesystem to the
// tree.  Directories that cannot be read are skipped.
func (t *Tree) Populate(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolutepath of %q", root)
	}
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) && path != absRoot {
				glog.V(1).Infof("Skipping %q: %s", path, err)
				return filepath.SkipDir
			}
			return err
		}
		_, err = t.Create(filepath.ToSlash(path), info.IsDir())
		return err
	})
	return errors.Wrapf(err, "populate %q", absRoot)
}
