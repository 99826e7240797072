package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
)

var byteOrder = binary.LittleEndian

var snapshotMagic = [4]byte{'E', 'N', 'D', 'U'}

const snapshotVersion uint16 = 1

// snapshotColumns is the fixed column set of the snapshot format. The list
// is embedded in every file; a file whose embedded list differs from this
// one does not decode, it fails hard.
var snapshotColumns = []string{
	"id",
	"name",
	"sport",
	"start_date",
	"distance_m",
	"elevation_m",
	"moving_sec",
	"avg_heartrate",
	"suffer_score",
	"avg_watts",
	"extra",
}

// writeString writes a uint16 length-prefixed UTF-8 string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, byteOrder, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// readString reads a uint16 length-prefixed UTF-8 string.
func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeBlob writes a uint32 length-prefixed byte slice.
func writeBlob(w io.Writer, b []byte) error {
	if err := binary.Write(w, byteOrder, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// readBlob reads a uint32 length-prefixed byte slice. Zero length yields nil.
func readBlob(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeOptFloat writes a presence byte followed by the value when present.
func writeOptFloat(w io.Writer, v *float64) error {
	if v == nil {
		return binary.Write(w, byteOrder, uint8(0))
	}
	if err := binary.Write(w, byteOrder, uint8(1)); err != nil {
		return err
	}
	return binary.Write(w, byteOrder, *v)
}

// readOptFloat reads a presence byte followed by the value when present.
func readOptFloat(r io.Reader) (*float64, error) {
	var present uint8
	if err := binary.Read(r, byteOrder, &present); err != nil {
		return nil, err
	}
	switch present {
	case 0:
		return nil, nil
	case 1:
		var v float64
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("invalid presence byte %d", present)
	}
}

// EncodeDataset serializes a dataset in the columnar snapshot format:
// magic + version + column list + row count, then one section per column
// holding all row values for that column.
func EncodeDataset(d *Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}

	if _, err := buf.Write(snapshotMagic[:]); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, byteOrder, snapshotVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, byteOrder, uint16(len(snapshotColumns))); err != nil {
		return nil, err
	}
	for _, col := range snapshotColumns {
		if err := writeString(buf, col); err != nil {
			return nil, err
		}
	}

	acts := d.Activities()
	if err := binary.Write(buf, byteOrder, uint32(len(acts))); err != nil {
		return nil, err
	}

	for i := range acts {
		if err := binary.Write(buf, byteOrder, acts[i].Id); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := writeString(buf, acts[i].Name); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := writeString(buf, acts[i].Sport); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := binary.Write(buf, byteOrder, acts[i].StartDate.UTC().UnixNano()); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := binary.Write(buf, byteOrder, acts[i].DistanceM); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := binary.Write(buf, byteOrder, acts[i].ElevationM); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := binary.Write(buf, byteOrder, acts[i].MovingSec); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := writeOptFloat(buf, acts[i].AvgHeartrate); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := writeOptFloat(buf, acts[i].SufferScore); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		if err := writeOptFloat(buf, acts[i].AvgWatts); err != nil {
			return nil, err
		}
	}
	for i := range acts {
		var blob []byte
		if len(acts[i].Extra) > 0 {
			var err error
			blob, err = json.Marshal(acts[i].Extra)
			if err != nil {
				return nil, err
			}
		}
		if err := writeBlob(buf, blob); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeDataset parses the columnar snapshot format back into a dataset.
// Wrong magic, version, or column set is an error, never a partial read.
func DecodeDataset(data []byte) (*Dataset, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("bad magic %q", magic[:])
	}

	var version uint16
	if err := binary.Read(r, byteOrder, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", version)
	}

	var colCount uint16
	if err := binary.Read(r, byteOrder, &colCount); err != nil {
		return nil, fmt.Errorf("read column count: %w", err)
	}
	if int(colCount) != len(snapshotColumns) {
		return nil, fmt.Errorf("schema mismatch: %d columns, want %d", colCount, len(snapshotColumns))
	}
	for _, want := range snapshotColumns {
		col, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read column name: %w", err)
		}
		if col != want {
			return nil, fmt.Errorf("schema mismatch: column %q, want %q", col, want)
		}
	}

	var rows uint32
	if err := binary.Read(r, byteOrder, &rows); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}

	acts := make([]Activity, rows)
	for i := range acts {
		if err := binary.Read(r, byteOrder, &acts[i].Id); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
	}
	for i := range acts {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read name: %w", err)
		}
		acts[i].Name = name
	}
	for i := range acts {
		sport, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read sport: %w", err)
		}
		acts[i].Sport = sport
	}
	for i := range acts {
		var nanos int64
		if err := binary.Read(r, byteOrder, &nanos); err != nil {
			return nil, fmt.Errorf("read start date: %w", err)
		}
		acts[i].StartDate = time.Unix(0, nanos).UTC()
	}
	for i := range acts {
		if err := binary.Read(r, byteOrder, &acts[i].DistanceM); err != nil {
			return nil, fmt.Errorf("read distance: %w", err)
		}
	}
	for i := range acts {
		if err := binary.Read(r, byteOrder, &acts[i].ElevationM); err != nil {
			return nil, fmt.Errorf("read elevation: %w", err)
		}
	}
	for i := range acts {
		if err := binary.Read(r, byteOrder, &acts[i].MovingSec); err != nil {
			return nil, fmt.Errorf("read moving time: %w", err)
		}
	}
	for i := range acts {
		v, err := readOptFloat(r)
		if err != nil {
			return nil, fmt.Errorf("read avg heartrate: %w", err)
		}
		acts[i].AvgHeartrate = v
	}
	for i := range acts {
		v, err := readOptFloat(r)
		if err != nil {
			return nil, fmt.Errorf("read suffer score: %w", err)
		}
		acts[i].SufferScore = v
	}
	for i := range acts {
		v, err := readOptFloat(r)
		if err != nil {
			return nil, fmt.Errorf("read avg watts: %w", err)
		}
		acts[i].AvgWatts = v
	}
	for i := range acts {
		blob, err := readBlob(r)
		if err != nil {
			return nil, fmt.Errorf("read extra: %w", err)
		}
		if blob != nil {
			var extra map[string]json.RawMessage
			if err := json.Unmarshal(blob, &extra); err != nil {
				return nil, fmt.Errorf("parse extra: %w", err)
			}
			acts[i].Extra = extra
		}
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after snapshot", r.Len())
	}

	return NewDataset(acts)
}
