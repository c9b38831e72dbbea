package smard

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"energy-forecast/src/helpers"
	"energy-forecast/src/models"
)

// DefaultDelimiter is the SMARD CSV field separator.
const DefaultDelimiter = ';'

// timestampLayout is the naive local layout rows are reassembled into.
const timestampLayout = "2006-01-02T15:04:05.000"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// -----------------------------------------------------------------------------

// ParseRow resolves the row timestamp from "Datum" (DD.MM.YYYY) and
// "Uhrzeit" or, failing that, "Anfang" (HH:MM). The timestamp carries no
// offset and is read in loc.
func ParseRow(columns []string, fields map[string]string, loc *time.Location) (models.ParsedRow, error) {
	if loc == nil {
		loc = time.Local
	}

	dateString, ok := fields[models.ColumnDate]
	if !ok {
		return models.ParsedRow{}, helpers.NewMalformedRowError(0, "missing %q", models.ColumnDate)
	}

	parts := strings.Split(dateString, ".")
	if len(parts) != 3 {
		return models.ParsedRow{}, helpers.NewMalformedRowError(0, "%q is not DD.MM.YYYY", dateString)
	}
	day, month, year := parts[0], parts[1], parts[2]

	timeString, ok := fields[models.ColumnTime]
	if !ok {
		timeString, ok = fields[models.ColumnStart]
	}
	if !ok {
		return models.ParsedRow{}, helpers.NewMalformedRowError(0, "missing %q and %q", models.ColumnTime, models.ColumnStart)
	}

	iso := fmt.Sprintf("%s-%s-%sT%s:00.000", year, month, day, timeString)
	date, err := time.ParseInLocation(timestampLayout, iso, loc)
	if err != nil {
		return models.ParsedRow{}, helpers.NewMalformedRowError(0, "timestamp %q: %v", iso, err)
	}

	return models.ParsedRow{
		Columns: columns,
		Fields:  fields,
		Date:    date,
	}, nil
}

// -----------------------------------------------------------------------------
// Decoder streams ParsedRows out of a delimited document. Each Read returns
// one record; a *helpers.MalformedRowError only concerns that record, so a
// caller may skip it and keep reading.
// -----------------------------------------------------------------------------

type Decoder struct {
	reader *csv.Reader
	loc    *time.Location
	header []string
	err    error
}

func NewDecoder(r io.Reader, delimiter rune, loc *time.Location) *Decoder {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if loc == nil {
		loc = time.Local
	}

	return &Decoder{reader: reader, loc: loc}
}

// -----------------------------------------------------------------------------

// Header returns the column labels, reading them on first use. An empty
// document has no header and yields io.EOF.
func (d *Decoder) Header() ([]string, error) {
	if d.header != nil || d.err != nil {
		return d.header, d.err
	}

	record, err := d.reader.Read()
	if err != nil {
		d.err = wrapCSVError(err)
		return nil, d.err
	}

	d.header = make([]string, len(record))
	copy(d.header, record)
	return d.header, nil
}

// -----------------------------------------------------------------------------

// Read returns the next row, or io.EOF once the document is exhausted.
func (d *Decoder) Read() (models.ParsedRow, error) {
	header, err := d.Header()
	if err != nil {
		return models.ParsedRow{}, err
	}

	record, err := d.reader.Read()
	if err != nil {
		return models.ParsedRow{}, wrapCSVError(err)
	}
	line, _ := d.reader.FieldPos(0)

	if len(record) != len(header) {
		return models.ParsedRow{}, helpers.NewMalformedRowError(line, "expected %d fields, got %d", len(header), len(record))
	}

	fields := make(map[string]string, len(header))
	for i, column := range header {
		fields[column] = record[i]
	}

	columns := make([]string, len(header))
	copy(columns, header)

	row, err := ParseRow(columns, fields, d.loc)
	if err != nil {
		var malformed *helpers.MalformedRowError
		if errors.As(err, &malformed) {
			malformed.Line = line
		}
		return models.ParsedRow{}, err
	}
	return row, nil
}

// -----------------------------------------------------------------------------

// Decode parses a whole ';' separated document and aborts on the first bad
// record: a shifted column would corrupt every derived value after it.
func Decode(text string, loc *time.Location) ([]models.ParsedRow, error) {
	return DecodeWith(text, DefaultDelimiter, loc)
}

// DecodeWith is Decode with a custom delimiter.
func DecodeWith(text string, delimiter rune, loc *time.Location) ([]models.ParsedRow, error) {
	dec := NewDecoder(strings.NewReader(text), delimiter, loc)

	rows := make([]models.ParsedRow, 0)
	for {
		row, err := dec.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// -----------------------------------------------------------------------------

func wrapCSVError(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return helpers.NewMalformedRowError(parseErr.Line, "%v", parseErr.Err)
	}
	return err
}
