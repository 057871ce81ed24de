// Package export buffers zonal rows into named tables and ships them to a
// remote table sink as JSON.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/pipeline"
	"github.com/project-spencer/dswe/pkg/sites"
	"github.com/project-spencer/dswe/pkg/zonal"
)

// TaskName builds the export name of one pull, e.g.
// "proj_site_LS89_C2_SRST_DSWE1_027033_v2024-01-01".
func TaskName(project string, extent sites.Extent, sensor model.Sensor, variant pipeline.Variant, tile, version string) string {
	return strings.Join([]string{
		project,
		string(extent),
		sensor.String(),
		"C2_SRST",
		string(variant),
		tile,
		"v" + version,
	}, "_")
}

// Table is a named, append only set of rows safe for concurrent use.
type Table struct {
	Name string

	rows []zonal.Row
	*sync.Mutex
}

func NewTable(name string) *Table {
	return &Table{
		Name:  name,
		Mutex: &sync.Mutex{},
	}
}

func (t *Table) Append(rows ...zonal.Row) {
	t.Lock()
	defer t.Unlock()
	t.rows = append(t.rows, rows...)
}

func (t *Table) Len() int {
	t.Lock()
	defer t.Unlock()
	return len(t.rows)
}

// Rows returns a copy of the buffered rows.
func (t *Table) Rows() []zonal.Row {
	t.Lock()
	defer t.Unlock()
	return append([]zonal.Row(nil), t.rows...)
}

// Drain returns the buffered rows and empties the table.
func (t *Table) Drain() []zonal.Row {
	t.Lock()
	defer t.Unlock()

	out := t.rows
	t.rows = nil
	return out
}

type payload struct {
	Name string            `json:"name"`
	Rows []json.RawMessage `json:"rows"`
}

// SendToRemote posts rows as one named table to endpoint.
func SendToRemote(ctx context.Context, endpoint, name string, rows []zonal.Row) error {
	p := payload{Name: name, Rows: make([]json.RawMessage, len(rows))}
	for i, r := range rows {
		b, err := r.MarshalJSON()
		if err != nil {
			return errors.Wrapf(err, "row %s", r.Index)
		}
		p.Rows[i] = b
	}

	j, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "could not marshal table")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(j))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "could not send table %s", name)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status code: %d", res.StatusCode)
	}

	log.Debugf("sent table %s with %d rows", name, len(rows))

	return nil
}

// Sink receives tables posted by SendToRemote and keeps them in memory.
type Sink struct {
	tables map[string][]json.RawMessage
	*sync.Mutex
}

func NewSink() *Sink {
	return &Sink{
		tables: make(map[string][]json.RawMessage),
		Mutex:  &sync.Mutex{},
	}
}

// Receive is the POST handler of the sink.
func (s *Sink) Receive(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var p payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "could not parse table", http.StatusBadRequest)
		return
	}

	if p.Name == "" {
		http.Error(w, "table without name", http.StatusBadRequest)
		return
	}

	log.Infof("received table %s with %d rows", p.Name, len(p.Rows))

	s.Lock()
	s.tables[p.Name] = append(s.tables[p.Name], p.Rows...)
	s.Unlock()

	w.WriteHeader(http.StatusOK)
}

// Table returns the rows received under name as raw JSON objects.
func (s *Sink) Table(name string) ([]json.RawMessage, bool) {
	s.Lock()
	defer s.Unlock()

	rows, ok := s.tables[name]
	return rows, ok
}

func (s *Sink) Names() []string {
	s.Lock()
	defer s.Unlock()

	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
