// Copyright (C) 2025 The Geocoding Authors.

// Package store persists a builder.Database as one flat, little-endian,
// fixed-width binary file per table plus one per sort index, and reads
// them back through memory-mapped, read-only byte slices. It does not
// interpret records beyond decoding one at a time through lib/geodata;
// everything above this layer works with in-memory Go values.
package store

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/adimajo/geocoding/lib/builder"
	"github.com/adimajo/geocoding/lib/geodata"
	"github.com/adimajo/geocoding/lib/kdtree"
	"github.com/adimajo/geocoding/lib/logger"
)

var l = logger.DefaultLogger

const (
	departmentFile = "department.dat"
	postalFile     = "postal.dat"
	communeFile    = "commune.dat"
	voieFile       = "voie.dat"
	locFile        = "localisation.dat"
	postalIdxFile  = "postal.idx"
	communeIdxFile = "commune.idx"
	voieIdxFile    = "voie.idx"
	kdtreeFile     = "kdtree.dat"
)

// mappedFile is one memory-mapped table or index file.
type mappedFile struct {
	f    *os.File
	data []byte
}

func openMappedFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		return &mappedFile{f: f, data: nil}, nil
	}
	data, err := mmap(int(f.Fd()), int(info.Size()))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mappedFile{f: f, data: data}, nil
}

func (m *mappedFile) Close() error {
	if err := munmap(m.data); err != nil {
		m.f.Close()
		return err
	}
	return m.f.Close()
}

// Database is a read-only, memory-mapped view of a built BAN database
// directory. The zero value is not usable; construct one with Open.
type Database struct {
	dept, postal, commune, voie, loc *mappedFile
	postalIdx, communeIdx, voieIdx   *mappedFile
	kdtree                           *mappedFile
}

// Open memory-maps every table and index file under dir. The k-d tree
// file is optional: a database that has been indexed but not yet
// reverse-built has no kdtree.dat, and NumKDNodes simply reports 0
// until Write is followed by a reverse build.
func Open(dir string) (*Database, error) {
	var db Database
	var err error

	for _, pair := range []struct {
		name string
		dst  **mappedFile
	}{
		{departmentFile, &db.dept},
		{postalFile, &db.postal},
		{communeFile, &db.commune},
		{voieFile, &db.voie},
		{locFile, &db.loc},
		{postalIdxFile, &db.postalIdx},
		{communeIdxFile, &db.communeIdx},
		{voieIdxFile, &db.voieIdx},
	} {
		*pair.dst, err = openMappedFile(filepath.Join(dir, pair.name))
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "store: open %s", pair.name)
		}
	}

	if kd, err := openMappedFile(filepath.Join(dir, kdtreeFile)); err == nil {
		db.kdtree = kd
	}

	return &db, nil
}

// Close unmaps and closes every underlying file. Safe to call on a
// partially-opened Database.
func (db *Database) Close() error {
	var firstErr error
	for _, m := range []*mappedFile{db.dept, db.postal, db.commune, db.voie, db.loc, db.postalIdx, db.communeIdx, db.voieIdx, db.kdtree} {
		if m == nil {
			continue
		}
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NumKDNodes and KDNode satisfy lib/reverse.Tree, letting reverse
// search run directly off the memory-mapped database.
func (db *Database) NumKDNodes() int {
	if db.kdtree == nil {
		return 0
	}
	return len(db.kdtree.data) / kdtree.NodeRecordSize
}

func (db *Database) KDNode(i int) kdtree.Node {
	off := i * kdtree.NodeRecordSize
	return kdtree.UnmarshalNode(db.kdtree.data[off : off+kdtree.NodeRecordSize])
}

// WriteKDTree persists nodes as dir/kdtree.dat, replacing any existing
// file atomically via a temp-file-then-rename, matching the other table
// writers' build-time atomicity.
func WriteKDTree(dir string, nodes []kdtree.Node) error {
	path := filepath.Join(dir, kdtreeFile)
	tmp := path + ".tmp"
	buf := make([]byte, kdtree.NodeRecordSize)
	if err := writeRecords(tmp, len(nodes), func(i int) []byte {
		nodes[i].Marshal(buf)
		return buf
	}); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "store: write kdtree")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "store: activate kdtree")
	}
	return nil
}

func (db *Database) NumDepartments() int { return len(db.dept.data) / geodata.DepartmentRecordSize }
func (db *Database) NumPostals() int     { return len(db.postal.data) / geodata.PostalRecordSize }
func (db *Database) NumCommunes() int    { return len(db.commune.data) / geodata.CommuneRecordSize }
func (db *Database) NumVoies() int       { return len(db.voie.data) / geodata.VoieRecordSize }
func (db *Database) NumLocs() int        { return len(db.loc.data) / geodata.LocalisationRecordSize }

func (db *Database) Department(i int) geodata.Department {
	off := i * geodata.DepartmentRecordSize
	return geodata.UnmarshalDepartment(db.dept.data[off : off+geodata.DepartmentRecordSize])
}

func (db *Database) Postal(i int) geodata.Postal {
	off := i * geodata.PostalRecordSize
	return geodata.UnmarshalPostal(db.postal.data[off : off+geodata.PostalRecordSize])
}

func (db *Database) Commune(i int) geodata.Commune {
	off := i * geodata.CommuneRecordSize
	return geodata.UnmarshalCommune(db.commune.data[off : off+geodata.CommuneRecordSize])
}

func (db *Database) Voie(i int) geodata.Voie {
	off := i * geodata.VoieRecordSize
	return geodata.UnmarshalVoie(db.voie.data[off : off+geodata.VoieRecordSize])
}

func (db *Database) Localisation(i int) geodata.Localisation {
	off := i * geodata.LocalisationRecordSize
	return geodata.UnmarshalLocalisation(db.loc.data[off : off+geodata.LocalisationRecordSize])
}

func (db *Database) NumPostalIndex() int  { return len(db.postalIdx.data) / 4 }
func (db *Database) NumCommuneIndex() int { return len(db.communeIdx.data) / 4 }
func (db *Database) NumVoieIndex() int    { return len(db.voieIdx.data) / 4 }

// PostalIndex is the argsort of the Postal table by Code, consumed by
// forward search's top-level binary search (§4.5 step 1).
func (db *Database) PostalIndex(i int) uint32 {
	return binary.LittleEndian.Uint32(db.postalIdx.data[i*4:])
}

// CommuneIndex and VoieIndex are the global by-name argsorts of the
// Commune and Voie tables mandated by §3.3. Forward search never reads
// them: it walks the per-postal and per-commune contiguous ranges the
// Builder already emits in sorted order, which makes a second,
// whole-table sort redundant for that lookup path. They remain for any
// consumer needing a commune or voie by exact normalized name without
// first resolving a postal code.
func (db *Database) CommuneIndex(i int) uint32 {
	return binary.LittleEndian.Uint32(db.communeIdx.data[i*4:])
}

func (db *Database) VoieIndex(i int) uint32 {
	return binary.LittleEndian.Uint32(db.voieIdx.data[i*4:])
}

// Write persists a builder.Database under dir, atomically replacing any
// existing directory at that path on success. All files are written to
// a fresh sibling temporary directory first, since a build produces many
// files at once; the previous directory is then renamed aside to a ".old"
// sibling, the new one renamed into place, and the old one removed.
func Write(dir string, db *builder.Database) error {
	tmpDir := dir + ".tmp"
	if err := os.RemoveAll(tmpDir); err != nil {
		return errors.Wrap(err, "store: clear stale tmp dir")
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return errors.Wrap(err, "store: create tmp dir")
	}

	writers := []struct {
		name string
		fn   func(string) error
	}{
		{departmentFile, func(p string) error { return writeDepartments(p, db.Departments) }},
		{postalFile, func(p string) error { return writePostals(p, db.Postals) }},
		{communeFile, func(p string) error { return writeCommunes(p, db.Communes) }},
		{voieFile, func(p string) error { return writeVoies(p, db.Voies) }},
		{locFile, func(p string) error { return writeLocs(p, db.Locs) }},
		{postalIdxFile, func(p string) error { return writeIndex(p, db.PostalIndex) }},
		{communeIdxFile, func(p string) error { return writeIndex(p, db.CommuneIndex) }},
		{voieIdxFile, func(p string) error { return writeIndex(p, db.VoieIndex) }},
	}
	for _, w := range writers {
		if err := w.fn(filepath.Join(tmpDir, w.name)); err != nil {
			os.RemoveAll(tmpDir)
			return errors.Wrapf(err, "store: write %s", w.name)
		}
	}

	oldDir := dir + ".old"
	os.RemoveAll(oldDir)
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, oldDir); err != nil {
			os.RemoveAll(tmpDir)
			return errors.Wrap(err, "store: move aside previous database")
		}
	}
	if err := os.Rename(tmpDir, dir); err != nil {
		// Best effort: restore the previous database so a failed build
		// never leaves the installation without a usable database.
		os.Rename(oldDir, dir)
		return errors.Wrap(err, "store: activate new database")
	}
	os.RemoveAll(oldDir)

	l.Infof("store: wrote database to %s (%d departments, %d localisations)", dir, len(db.Departments), len(db.Locs))
	return nil
}

func writeDepartments(path string, rows []geodata.Department) error {
	buf := make([]byte, geodata.DepartmentRecordSize)
	return writeRecords(path, len(rows), func(i int) []byte {
		rows[i].Marshal(buf)
		return buf
	})
}

func writePostals(path string, rows []geodata.Postal) error {
	buf := make([]byte, geodata.PostalRecordSize)
	return writeRecords(path, len(rows), func(i int) []byte {
		rows[i].Marshal(buf)
		return buf
	})
}

func writeCommunes(path string, rows []geodata.Commune) error {
	buf := make([]byte, geodata.CommuneRecordSize)
	return writeRecords(path, len(rows), func(i int) []byte {
		rows[i].Marshal(buf)
		return buf
	})
}

func writeVoies(path string, rows []geodata.Voie) error {
	buf := make([]byte, geodata.VoieRecordSize)
	return writeRecords(path, len(rows), func(i int) []byte {
		rows[i].Marshal(buf)
		return buf
	})
}

func writeLocs(path string, rows []geodata.Localisation) error {
	buf := make([]byte, geodata.LocalisationRecordSize)
	return writeRecords(path, len(rows), func(i int) []byte {
		rows[i].Marshal(buf)
		return buf
	})
}

func writeIndex(path string, idx []uint32) error {
	buf := make([]byte, 4)
	return writeRecords(path, len(idx), func(i int) []byte {
		binary.LittleEndian.PutUint32(buf, idx[i])
		return buf
	})
}

func writeRecords(path string, n int, marshal func(i int) []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for i := 0; i < n; i++ {
		if _, err := f.Write(marshal(i)); err != nil {
			return err
		}
	}
	return f.Sync()
}
