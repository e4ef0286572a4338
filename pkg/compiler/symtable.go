package compiler

import (
	"fmt"
	"sort"
	"strings"

	"cvhdl/pkg/diag"
)

// Field is one member of a struct, in declaration order. Type is the C type
// spelling, or the struct name for nested struct members.
type Field struct {
	Name string
	Type string
}

// StructInfo describes a registered struct definition.
type StructInfo struct {
	Name   string
	Fields []Field
	Line   int
}

// Field returns the named member.
func (s *StructInfo) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// StructTable is the append-only table of struct definitions. It lives for
// the whole compilation.
type StructTable struct {
	entries []*StructInfo
}

// Define appends a definition. A repeated name is still appended; Lookup
// keeps returning the first one. The boolean reports whether name was new.
func (t *StructTable) Define(info *StructInfo) bool {
	_, exists := t.Lookup(info.Name)
	t.entries = append(t.entries, info)
	return !exists
}

// Lookup returns the first definition registered under name.
func (t *StructTable) Lookup(name string) (*StructInfo, bool) {
	for _, s := range t.entries {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// All returns every entry in registration order, duplicates included.
func (t *StructTable) All() []*StructInfo {
	return t.entries
}

// Names returns the distinct struct names in registration order.
func (t *StructTable) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range t.entries {
		if !seen[s.Name] {
			seen[s.Name] = true
			names = append(names, s.Name)
		}
	}
	return names
}

func (t *StructTable) Len() int { return len(t.entries) }

// ArrayTable maps array names to their declared element count. It is reset
// at the start of every function.
type ArrayTable struct {
	sizes map[string]int
}

// Register records name with size. Registering a name again replaces its
// size.
func (t *ArrayTable) Register(name string, size int) {
	if t.sizes == nil {
		t.sizes = make(map[string]int)
	}
	t.sizes[name] = size
}

// Size returns the declared size of name, or false if it is not an array in
// the current function.
func (t *ArrayTable) Size(name string) (int, bool) {
	size, ok := t.sizes[name]
	return size, ok
}

// Reset forgets every array.
func (t *ArrayTable) Reset() {
	t.sizes = nil
}

func (t *ArrayTable) Len() int { return len(t.sizes) }

// Context is the explicit state of one compilation: the struct table, the
// current function's array table, and the nonfatal findings recorded along
// the way.
type Context struct {
	Structs  StructTable
	Arrays   ArrayTable
	Warnings []*Error
}

func NewContext() *Context {
	return &Context{}
}

// Warn records a nonfatal finding.
func (c *Context) Warn(cat diag.Category, line int, code, format string, args ...any) *Error {
	w := &Error{
		Severity: diag.Warning,
		Category: cat,
		Line:     line,
		Code:     code,
		Msg:      fmt.Sprintf(format, args...),
	}
	c.Warnings = append(c.Warnings, w)
	return w
}

// String dumps both tables deterministically.
func (c *Context) String() string {
	var b strings.Builder
	b.WriteString("Structs\n")
	for _, s := range c.Structs.All() {
		fields := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = f.Type + " " + f.Name
		}
		fmt.Fprintf(&b, "  %-12s { %s }\n", s.Name, strings.Join(fields, "; "))
	}

	b.WriteString("Arrays\n")
	names := make([]string, 0, c.Arrays.Len())
	for name := range c.Arrays.sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %-12s [%d]\n", name, c.Arrays.sizes[name])
	}
	return b.String()
}
