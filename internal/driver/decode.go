package driver

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"bindgen/internal/diag"
	"bindgen/internal/source"
)

// Format is the encoding of a declaration file.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatUnknown
}

// rawFile is the on-disk shape of a declaration file. TOML spells the item
// list as [[item]] tables, YAML as an "items" sequence.
type rawFile struct {
	Module string    `toml:"module" yaml:"module"`
	Items  []rawItem `toml:"item" yaml:"items"`
}

type rawItem struct {
	Kind     string       `toml:"kind" yaml:"kind"`
	Name     string       `toml:"name" yaml:"name"`
	Repr     string       `toml:"repr" yaml:"repr"`
	NoMangle bool         `toml:"no_mangle" yaml:"no_mangle"`
	ABI      string       `toml:"abi" yaml:"abi"`
	Fields   []rawField   `toml:"fields" yaml:"fields"`
	Params   []rawField   `toml:"params" yaml:"params"`
	Variants []rawVariant `toml:"variants" yaml:"variants"`
	Type     string       `toml:"type" yaml:"type"`
	Returns  string       `toml:"returns" yaml:"returns"`
	Value    any          `toml:"value" yaml:"value"`
}

type rawField struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`
}

type rawVariant struct {
	Name  string `toml:"name" yaml:"name"`
	Value any    `toml:"value" yaml:"value"`
}

// itemLoc locates an item and its fields (or params) in the file.
type itemLoc struct {
	span   source.Span
	fields []source.Span
}

// decoded is a raw file plus the location of every item, index-aligned.
type decoded struct {
	file rawFile
	locs []itemLoc
}

func decodeFile(fs *source.FileSet, id source.FileID) (*decoded, error) {
	f := fs.Get(id)
	if f == nil {
		return nil, diag.NewErr(diag.InpReadFailed, fmt.Sprintf("unknown file id %d", id))
	}
	switch FormatOf(f.Path) {
	case FormatTOML:
		return decodeTOML(f)
	case FormatYAML:
		return decodeYAML(fs, f)
	}
	return nil, fileErr(f, 0, diag.InpMalformedFile,
		fmt.Sprintf("%s: unsupported declaration file extension %q", f.Path, filepath.Ext(f.Path)))
}

func fileErr(f *source.File, off uint32, code diag.Code, msg string) *diag.Error {
	e := diag.NewErr(code, msg)
	e.Span = source.Span{File: f.ID, Start: off, End: off}
	return e
}

func contentLen(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

func decodeTOML(f *source.File) (*decoded, error) {
	var raw rawFile
	if _, err := toml.Decode(string(f.Content), &raw); err != nil {
		var off uint32
		msg := err.Error()
		var perr toml.ParseError
		if errors.As(err, &perr) {
			if start, cerr := safecast.Conv[uint32](perr.Position.Start); cerr == nil {
				off = start
			}
			msg = perr.Message
		}
		return nil, fileErr(f, off, diag.InpMalformedFile, fmt.Sprintf("%s: %s", f.Path, msg))
	}
	return &decoded{file: raw, locs: tomlLocs(f, raw.Items)}, nil
}

// tomlLocs maps the i-th [[item]] header to the i-th item. When the headers
// do not line up with the decoded items (inline arrays), every item gets
// the whole file.
func tomlLocs(f *source.File, items []rawItem) []itemLoc {
	var starts []uint32
	var off uint32
	for _, line := range bytes.SplitAfter(f.Content, []byte("\n")) {
		header := strings.Join(strings.Fields(string(line)), "")
		if strings.HasPrefix(header, "[[item]]") {
			starts = append(starts, off)
		}
		n, _ := safecast.Conv[uint32](len(line))
		off += n
	}
	end := contentLen(f)
	locs := make([]itemLoc, len(items))
	if len(starts) != len(items) {
		for i := range locs {
			locs[i].span = source.Span{File: f.ID, Start: 0, End: end}
		}
		return locs
	}
	for i := range items {
		itemEnd := end
		if i+1 < len(starts) {
			itemEnd = starts[i+1]
		}
		sp := source.Span{File: f.ID, Start: starts[i], End: itemEnd}
		locs[i] = itemLoc{span: sp, fields: tomlFieldSpans(f, sp, items[i])}
	}
	return locs
}

// tomlFieldSpans finds each field's quoted name after the fields/params key.
func tomlFieldSpans(f *source.File, item source.Span, raw rawItem) []source.Span {
	list := raw.Fields
	key := "fields"
	if raw.Kind == "fn" || raw.Kind == "function" {
		list, key = raw.Params, "params"
	}
	text := string(f.Content[item.Start:item.End])
	cursor := strings.Index(text, key)
	spans := make([]source.Span, len(list))
	for i, fld := range list {
		spans[i] = item
		if cursor < 0 || fld.Name == "" {
			continue
		}
		quoted := `"` + fld.Name + `"`
		at := strings.Index(text[cursor:], quoted)
		if at < 0 {
			continue
		}
		start := cursor + at + 1
		cursor = start + len(fld.Name)
		s, _ := safecast.Conv[uint32](start)
		n, _ := safecast.Conv[uint32](len(fld.Name))
		spans[i] = source.Span{File: f.ID, Start: item.Start + s, End: item.Start + s + n}
	}
	return spans
}

func decodeYAML(fs *source.FileSet, f *source.File) (*decoded, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(f.Content, &root); err != nil {
		return nil, fileErr(f, 0, diag.InpMalformedFile, fmt.Sprintf("%s: %v", f.Path, err))
	}
	var raw rawFile
	if len(root.Content) > 0 {
		if err := root.Decode(&raw); err != nil {
			return nil, fileErr(f, 0, diag.InpMalformedFile, fmt.Sprintf("%s: %v", f.Path, err))
		}
	}

	pos := func(n *yaml.Node) uint32 {
		line, _ := safecast.Conv[uint32](n.Line)
		col, _ := safecast.Conv[uint32](n.Column)
		return fs.Offset(f.ID, source.LineCol{Line: line, Col: col})
	}
	end := contentLen(f)
	locs := make([]itemLoc, len(raw.Items))
	for i := range locs {
		locs[i].span = source.Span{File: f.ID, Start: 0, End: end}
	}

	seq := mappingValue(documentBody(&root), "items")
	if seq == nil || seq.Kind != yaml.SequenceNode || len(seq.Content) != len(raw.Items) {
		return &decoded{file: raw, locs: locs}, nil
	}
	for i, node := range seq.Content {
		itemEnd := end
		if i+1 < len(seq.Content) {
			itemEnd = pos(seq.Content[i+1])
		}
		sp := source.Span{File: f.ID, Start: pos(node), End: itemEnd}
		if sp.End < sp.Start {
			sp.End = sp.Start
		}
		locs[i].span = sp

		list := mappingValue(node, "fields")
		if list == nil {
			list = mappingValue(node, "params")
		}
		if list == nil || list.Kind != yaml.SequenceNode {
			continue
		}
		for _, fld := range list.Content {
			fsp := sp
			if name := mappingValue(fld, "name"); name != nil {
				start := pos(name)
				if name.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
					start++
				}
				n, _ := safecast.Conv[uint32](len(name.Value))
				fsp = source.Span{File: f.ID, Start: start, End: min(start+n, end)}
			}
			locs[i].fields = append(locs[i].fields, fsp)
		}
	}
	return &decoded{file: raw, locs: locs}, nil
}

func documentBody(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

// mappingValue returns the value node of key in a mapping node.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
