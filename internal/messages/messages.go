// Package messages moves haul intro texts into a shared string table and
// replaces them with string references.
package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/models"
	"github.com/starford/csaharvest/internal/storage"
)

// File names.
const (
	StringsFile  = "strings.json"
	RefHaulsFile = "csa_hauls.with_string_refs.json"
)

const idPrefix = "string_"

// Table maps string ids to texts. Identical texts share one id.
type Table struct {
	byID   map[string]string
	byText map[string]string
	max    int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byID: make(map[string]string), byText: make(map[string]string)}
}

// LoadTable reads the string table. Both {"strings": [{"string_1": "..."}]}
// and {"strings": {"string_1": "..."}} are accepted; a missing file yields an
// empty table.
func LoadTable(store storage.Provider) (*Table, error) {
	t := NewTable()
	data, err := store.Read(StringsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}

	var doc struct {
		Strings json.RawMessage `json:"strings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("messages: decode %s: %w", StringsFile, err)
	}
	if len(doc.Strings) == 0 {
		return t, nil
	}

	var list []map[string]string
	if err := json.Unmarshal(doc.Strings, &list); err == nil {
		for _, entry := range list {
			if len(entry) != 1 {
				continue
			}
			for id, text := range entry {
				t.add(id, text)
			}
		}
		return t, nil
	}
	var flat map[string]string
	if err := json.Unmarshal(doc.Strings, &flat); err != nil {
		return nil, fmt.Errorf("messages: decode %s: unexpected strings shape", StringsFile)
	}
	for id, text := range flat {
		t.add(id, text)
	}
	return t, nil
}

func (t *Table) add(id, text string) {
	t.byID[id] = text
	if _, ok := t.byText[text]; !ok {
		t.byText[text] = id
	}
	if n, ok := idNumber(id); ok && n > t.max {
		t.max = n
	}
}

// Ref returns the id for text, allocating string_<max+1> for new text.
func (t *Table) Ref(text string) string {
	if id, ok := t.byText[text]; ok {
		return id
	}
	id := idPrefix + strconv.Itoa(t.max+1)
	t.add(id, text)
	return id
}

// Text returns the text stored under id.
func (t *Table) Text(id string) (string, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// Len returns the number of stored strings.
func (t *Table) Len() int { return len(t.byID) }

type tableDocument struct {
	Strings []map[string]string `json:"strings"`
}

// document returns the on-disk shape, one single-key object per string,
// ordered by id number.
func (t *Table) document() tableDocument {
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aok := idNumber(ids[i])
		b, bok := idNumber(ids[j])
		if aok != bok {
			return aok
		}
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
	list := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		list = append(list, map[string]string{id: t.byID[id]})
	}
	return tableDocument{Strings: list}
}

func idNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	return n, err == nil
}

// IsRef reports whether a message is already a string reference.
func IsRef(message string) bool {
	return strings.HasPrefix(message, idPrefix)
}

// Result summarises an extraction run.
type Result struct {
	Hauls    int // hauls processed
	Replaced int // messages turned into references
	Strings  int // strings in the table afterwards
}

// Extract replaces every haul message in the hauls catalog with a string
// reference. The catalog itself is left untouched; the referencing copy and
// the string table are written alongside it.
func Extract(store storage.Provider, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hauls, err := catalog.LoadHauls(store)
	if err != nil {
		return Result{}, fmt.Errorf("messages: load hauls: %w", err)
	}
	table, err := LoadTable(store)
	if err != nil {
		return Result{}, err
	}

	res := Result{Hauls: len(hauls)}
	for i := range hauls {
		if replaced := Apply(&hauls[i], table); replaced {
			res.Replaced++
		}
	}
	res.Strings = table.Len()

	data, err := models.Encode(catalog.HaulsDocument{Hauls: hauls})
	if err != nil {
		return Result{}, fmt.Errorf("messages: encode hauls: %w", err)
	}
	if err := store.Write(RefHaulsFile, data); err != nil {
		return Result{}, fmt.Errorf("messages: write hauls: %w", err)
	}
	data, err = models.Encode(table.document())
	if err != nil {
		return Result{}, fmt.Errorf("messages: encode strings: %w", err)
	}
	if err := store.Write(StringsFile, data); err != nil {
		return Result{}, fmt.Errorf("messages: write strings: %w", err)
	}

	logger.Info("messages: extracted",
		slog.Int("hauls", res.Hauls),
		slog.Int("replaced", res.Replaced),
		slog.Int("strings", res.Strings))
	return res, nil
}

// Apply swaps one haul's message for a reference. Existing references are
// left alone and blank messages are cleared.
func Apply(h *models.Haul, table *Table) bool {
	if h.Message == "" || IsRef(h.Message) {
		return false
	}
	text := strings.TrimSpace(h.Message)
	if text == "" {
		h.Message = ""
		return false
	}
	h.Message = table.Ref(text)
	return true
}
