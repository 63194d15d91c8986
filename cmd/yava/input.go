package main

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/petr590/NewYava-sub001/classfile"
)

const (
	classExt = ".class"
	jarExt   = ".jar"
)

// loadClasses parses the class files named by paths. A path is a class file, a jar archive or a
// directory searched recursively for both.
func loadClasses(paths []string) ([]*classfile.Class, error) {
	var classes []*classfile.Class
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", path)
		}
		if !info.IsDir() {
			found, err := loadFile(path)
			if err != nil {
				return nil, err
			}
			classes = append(classes, found...)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isInput(p) {
				return nil
			}
			found, err := loadFile(p)
			if err != nil {
				return err
			}
			classes = append(classes, found...)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk %s", path)
		}
	}
	return classes, nil
}

func isInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == classExt || ext == jarExt
}

func loadFile(path string) ([]*classfile.Class, error) {
	if strings.EqualFold(filepath.Ext(path), jarExt) {
		return loadJar(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	cls, err := classfile.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return []*classfile.Class{cls}, nil
}

// loadJar parses every class file entry of a jar archive
func loadJar(path string) ([]*classfile.Class, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open jar %s", path)
	}
	defer r.Close()

	var classes []*classfile.Class
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, classExt) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s!%s", path, f.Name)
		}
		cls, err := classfile.Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s!%s", path, f.Name)
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
