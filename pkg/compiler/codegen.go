package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cvhdl/pkg/diag"
)

// DefaultHeader names the generator in the first output line.
const DefaultHeader = "cvhdl"

// Options control a compilation.
type Options struct {
	// Header follows "-- VHDL generated by" on the first line.
	Header string
	// Top, when set, prunes every function not reachable from it.
	Top string
}

// VHDLType maps a C scalar type to its VHDL vector. Unknown spellings get
// the 32-bit default.
func VHDLType(ctype string) string {
	switch ctype {
	case "double":
		return "std_logic_vector(63 downto 0)"
	case "char":
		return "std_logic_vector(7 downto 0)"
	}
	return "std_logic_vector(31 downto 0)"
}

// RecordType is the VHDL record name for a struct.
func RecordType(structName string) string {
	return structName + "_t"
}

// IsStructType reports whether a declaration's type token names a struct.
// Scalar types are keywords; struct types are stored as the struct's name.
func IsStructType(tok *Token) bool {
	return tok != nil && tok.Kind == Identifier
}

// DeclType returns the VHDL type of a declaration, parameter or function
// return. For arrays it is the element type.
func DeclType(n *Node) string {
	if IsStructType(n.Type) {
		return RecordType(n.Type.Text)
	}
	return VHDLType(n.TypeName())
}

// SignalName maps a local name to its signal. A local called "result"
// would shadow the output port, so it becomes "result_local".
func SignalName(name string) string {
	if name == "result" {
		return "result_local"
	}
	return name
}

// DeclName splits a VarDecl's text into its name and, for "name[size]",
// the array size.
func DeclName(n *Node) (name string, size int, isArray bool) {
	open := strings.IndexByte(n.Text, '[')
	if open < 0 || !strings.HasSuffix(n.Text, "]") {
		return n.Text, 0, false
	}
	size, err := strconv.Atoi(n.Text[open+1 : len(n.Text)-1])
	if err != nil {
		return n.Text[:open], 0, false
	}
	return n.Text[:open], size, true
}

// Generator lowers a Program AST to VHDL text.
type Generator struct {
	ctx  *Context
	opts Options
	out  strings.Builder
	fn   *Node // function being emitted
}

// NewGenerator returns a generator reading struct definitions from ctx.
// Codegen warnings are recorded on ctx as well.
func NewGenerator(ctx *Context, opts Options) *Generator {
	if opts.Header == "" {
		opts.Header = DefaultHeader
	}
	return &Generator{ctx: ctx, opts: opts}
}

// Generate lowers prog to VHDL.
func Generate(prog *Node, ctx *Context, opts Options) (string, error) {
	return NewGenerator(ctx, opts).Generate(prog)
}

func (g *Generator) line(format string, args ...any) {
	fmt.Fprintf(&g.out, format+"\n", args...)
}

// warn records a nonfatal codegen finding.
func (g *Generator) warn(line int, format string, args ...any) {
	g.ctx.Warn(diag.Codegen, line, CodeStructLookup, format, args...)
}

// Generate emits the header, one record per struct, and one
// entity/architecture pair per function in source order.
func (g *Generator) Generate(prog *Node) (string, error) {
	if prog == nil || prog.Kind != Program {
		return "", errors.New("generate: expected a Program node")
	}
	g.out.Reset()

	g.line("-- VHDL generated by %s", g.opts.Header)
	g.line("")
	g.line("library IEEE;")
	g.line("use IEEE.STD_LOGIC_1164.ALL;")
	g.line("use IEEE.NUMERIC_STD.ALL;")
	g.line("")

	g.records()
	for _, fn := range Functions(prog) {
		g.function(fn)
	}
	return g.out.String(), nil
}

// records emits one record type per distinct struct name, using the first
// definition.
func (g *Generator) records() {
	for _, name := range g.ctx.Structs.Names() {
		info, _ := g.ctx.Structs.Lookup(name)
		g.line("-- Struct %s as VHDL record", info.Name)
		g.line("type %s is record", RecordType(info.Name))
		for _, f := range info.Fields {
			g.line("  %s : %s;", f.Name, g.fieldType(f.Type))
		}
		g.line("end record;")
		g.line("")
	}
}

func (g *Generator) fieldType(ctype string) string {
	if _, ok := g.ctx.Structs.Lookup(ctype); ok {
		return RecordType(ctype)
	}
	return VHDLType(ctype)
}

func (g *Generator) function(fn *Node) {
	g.fn = fn
	defer func() { g.fn = nil }()

	g.line("-- Function: %s", fn.Text)
	g.line("entity %s is", fn.Text)
	g.line("  port (")
	g.line("    clk   : in  std_logic;")
	g.line("    reset : in  std_logic;")
	for _, p := range Params(fn) {
		g.line("    %s : in %s;", p.Text, DeclType(p))
	}
	g.line("    result : out %s", DeclType(fn))
	g.line("  );\nend entity;")
	g.line("")

	g.line("architecture behavioral of %s is", fn.Text)
	for _, decl := range LocalDecls(fn) {
		g.signal(decl)
	}
	g.line("begin")
	g.line("  process(clk, reset)")
	g.line("  begin")
	g.line("    if reset = '1' then")
	g.line("      -- Reset logic (user-defined)")
	g.line("    elsif rising_edge(clk) then")
	for _, stmt := range Body(fn) {
		g.statement(stmt, bodyDepth)
	}
	g.line("    end if;")
	g.line("  end process;")
	g.line("end architecture;")
	g.line("")
}

// LocalDecls returns the variable declarations anywhere in a function body,
// including loop headers, in source order. A name declared twice keeps its
// first declaration.
func LocalDecls(fn *Node) []*Node {
	seen := make(map[string]bool)
	var decls []*Node
	for _, stmt := range Body(fn) {
		Walk(stmt, func(n, _ *Node) bool {
			if n.Kind != VarDecl {
				return true
			}
			name, _, _ := DeclName(n)
			if !seen[name] {
				seen[name] = true
				decls = append(decls, n)
			}
			return false
		})
	}
	return decls
}

// signal declares one local.
func (g *Generator) signal(decl *Node) {
	name, size, isArray := DeclName(decl)
	sig := SignalName(name)
	typ := DeclType(decl)

	if !isArray {
		g.line("  signal %s : %s;", sig, typ)
		return
	}

	g.line("  type %s_type is array (0 to %d) of %s;", sig, size-1, typ)
	init := decl.Child(0)
	if init == nil || init.Text != ArrayInit {
		g.line("  signal %s : %s_type;", sig, sig)
		return
	}
	elems := make([]string, len(init.Children))
	for i, e := range init.Children {
		elems[i] = g.arrayElement(decl.TypeName(), e)
	}
	if len(elems) < size && scalarTypes[decl.TypeName()] {
		elems = append(elems, "others => (others => '0')")
	}
	g.line("  -- Array initialization")
	g.line("  constant %s_init : %s_type := (%s);", sig, sig, strings.Join(elems, ", "))
	g.line("  signal %s : %s_type := %s_init;", sig, sig, sig)
}

// arrayElement renders one initializer element: int literals are packed
// into 32-bit two's complement bit strings and char literals are quoted.
func (g *Generator) arrayElement(ctype string, e *Node) string {
	switch ctype {
	case "int":
		if e.Kind == Expression && isIntLiteral(e.Text) {
			v, _ := strconv.ParseInt(e.Text, 10, 64)
			return fmt.Sprintf("%q", fmt.Sprintf("%032b", uint32(int32(v))))
		}
	case "char":
		if e.Kind == Expression {
			return "'" + e.Text + "'"
		}
	}
	return g.expr(e)
}
