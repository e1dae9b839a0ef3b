package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/schollz/progressbar/v3"

	"github.com/terratensor/teryt/internal/core/domain"
)

// Column is one <col> of a registry row. Null marks an empty element.
type Column struct {
	Name string
	Text string
	Null bool
}

// Row is a registry record with its 1-based position in the document.
type Row struct {
	Path    string
	Index   int
	Columns []Column
}

// SchemaColumn is a column the registry schema puts at a fixed position.
type SchemaColumn struct {
	Index int
	Name  string
}

func (r Row) malformed(column string, err error) error {
	return &domain.MalformedRowError{Path: r.Path, Index: r.Index, Column: column, Err: err}
}

func (r Row) column(c SchemaColumn) (Column, error) {
	if c.Index >= len(r.Columns) {
		return Column{}, r.malformed(c.Name, fmt.Errorf("%w: row has %d columns", domain.ErrMissingColumn, len(r.Columns)))
	}
	col := r.Columns[c.Index]
	if col.Name != "" && col.Name != c.Name {
		return Column{}, r.malformed(c.Name, fmt.Errorf("%w: position %d holds %s", domain.ErrMissingColumn, c.Index, col.Name))
	}
	return col, nil
}

// Text returns the value of a required column.
func (r Row) Text(c SchemaColumn) (string, error) {
	col, err := r.column(c)
	if err != nil {
		return "", err
	}
	if col.Null {
		return "", r.malformed(c.Name, fmt.Errorf("%w: empty value", domain.ErrMissingColumn))
	}
	return col.Text, nil
}

// Optional returns the value of a column that may be empty.
func (r Row) Optional(c SchemaColumn) (string, error) {
	col, err := r.column(c)
	if err != nil {
		return "", err
	}
	return col.Text, nil
}

// Date parses a required yyyy-MM-dd column.
func (r Row) Date(c SchemaColumn) (time.Time, error) {
	text, err := r.Text(c)
	if err != nil {
		return time.Time{}, err
	}
	d, err := ParseDate(text)
	if err != nil {
		return time.Time{}, r.malformed(c.Name, err)
	}
	return d, nil
}

// Selector picks rows by the value of one named column.
type Selector struct {
	Column   string
	Value    string
	Contains bool
}

// ColumnEquals selects rows whose column text is exactly value.
func ColumnEquals(column, value string) Selector {
	return Selector{Column: column, Value: value}
}

// ColumnContains selects rows whose column text contains value. Administrative
// labels are compound ("gmina miejsko-wiejska", "miasto na prawach powiatu"),
// so levels are matched by substring.
func ColumnContains(column, value string) Selector {
	return Selector{Column: column, Value: value, Contains: true}
}

func (s Selector) XPath() string {
	if s.Contains {
		return fmt.Sprintf("//row[col[@name=%s][contains(text(), %s)]]", quote(s.Column), quote(s.Value))
	}
	return fmt.Sprintf("//row[col[@name=%s][text()=%s]]", quote(s.Column), quote(s.Value))
}

func (s Selector) String() string {
	if s.Contains {
		return fmt.Sprintf("%s contains %q", s.Column, s.Value)
	}
	return fmt.Sprintf("%s = %q", s.Column, s.Value)
}

func quote(s string) string {
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// Document is a parsed registry file (TERC or SIMC).
type Document struct {
	Path  string
	root  *xmlquery.Node
	index map[*xmlquery.Node]int
}

// Parse loads a registry document into memory.
func Parse(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.InputMissingError{Path: path}
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(path, file)
}

// ParseReader reads a registry document from r; path is used in error reports.
func ParseReader(path string, r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	doc := &Document{Path: path, root: root, index: make(map[*xmlquery.Node]int)}
	for i, n := range xmlquery.Find(root, "//row") {
		doc.index[n] = i + 1
	}
	return doc, nil
}

// Rows yields the rows matching sel in document order. The sequence is lazy
// and can be ranged over any number of times.
func (d *Document) Rows(sel Selector) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		expr, err := xpath.Compile(sel.XPath())
		if err != nil {
			yield(Row{}, fmt.Errorf("invalid selector %s: %w", sel, err))
			return
		}

		nodes := expr.Select(xmlquery.CreateXPathNavigator(d.root))
		for nodes.MoveNext() {
			nav, ok := nodes.Current().(*xmlquery.NodeNavigator)
			if !ok {
				continue
			}
			if !yield(d.row(nav.Current()), nil) {
				return
			}
		}
	}
}

// Count returns how many rows match sel.
func (d *Document) Count(sel Selector) (int, error) {
	n := 0
	for _, err := range d.Rows(sel) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (d *Document) row(n *xmlquery.Node) Row {
	row := Row{Path: d.Path, Index: d.index[n]}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode || c.Data != "col" {
			continue
		}
		text := strings.TrimSpace(c.InnerText())
		row.Columns = append(row.Columns, Column{
			Name: c.SelectAttr("name"),
			Text: text,
			Null: text == "",
		})
	}
	return row
}

// ProgressBar creates a progress bar over a known number of rows.
func ProgressBar(total int, description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		out = io.Discard
	}
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
}

// ParseDate parses date in yyyy-MM-dd format
func ParseDate(dateStr string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", domain.ErrInvalidDate, dateStr, err)
	}
	return d, nil
}
