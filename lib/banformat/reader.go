// Copyright (C) 2025 The Geocoding Authors.

package banformat

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/adimajo/geocoding/lib/logger"
)

var l = logger.DefaultLogger

// ReadFile streams every parseable Record out of a decompressed BAN CSV
// file, classifying it by filename via DetectKind. The header line is
// skipped. Rows that fail ParseLine are counted and dropped silently;
// the dropped count is logged at debug level once the file is fully
// read, matching the "local recovery: drop the row, continue" error
// kind from the core error-handling design.
func ReadFile(path string) ([]Record, error) {
	kind, ok := DetectKind(path)
	if !ok {
		return nil, errors.Errorf("banformat: unrecognized file kind for %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "banformat: open")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "banformat: read header")
	}

	var (
		records []Record
		dropped int
	)
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}
		rec, ok := ParseLine(kind, fields)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		l.Debugf("banformat: dropped %d malformed rows from %s", dropped, path)
	}
	return records, nil
}
