package compiler

import (
	"errors"
	"strings"
	"testing"
)

func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func assertNotContains(t *testing.T, code, unexpected string) {
	t.Helper()
	if strings.Contains(code, unexpected) {
		t.Errorf("Expected code not to contain %q.\nCode:\n%s", unexpected, code)
	}
}

// compileOK compiles src and fails the test on a fatal error.
func compileOK(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Compile(src, Options{})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return res
}

func TestGenerate_Header(t *testing.T) {
	res, err := Compile("", Options{Header: "unit-test"})
	if err != nil {
		t.Fatal(err)
	}
	want := "-- VHDL generated by unit-test\n\nlibrary IEEE;\nuse IEEE.STD_LOGIC_1164.ALL;\nuse IEEE.NUMERIC_STD.ALL;\n\n"
	if res.VHDL != want {
		t.Errorf("got %q, want %q", res.VHDL, want)
	}
}

func TestGenerate_Add(t *testing.T) {
	vhdl := compileOK(t, "int add(int a, int b) { return a + b; }").VHDL

	assertContains(t, vhdl, "-- Function: add\nentity add is\n  port (\n")
	assertContains(t, vhdl, "    clk   : in  std_logic;\n    reset : in  std_logic;\n")
	assertContains(t, vhdl, "    a : in std_logic_vector(31 downto 0);\n")
	assertContains(t, vhdl, "    b : in std_logic_vector(31 downto 0);\n")
	assertContains(t, vhdl, "    result : out std_logic_vector(31 downto 0)\n  );\nend entity;\n")
	assertContains(t, vhdl, "architecture behavioral of add is\nbegin\n  process(clk, reset)\n  begin\n")
	assertContains(t, vhdl, "    if reset = '1' then\n      -- Reset logic (user-defined)\n    elsif rising_edge(clk) then\n")
	assertContains(t, vhdl, "      result <= a + b;\n    end if;\n  end process;\nend architecture;\n")
}

func TestGenerate_Square(t *testing.T) {
	vhdl := compileOK(t, "int square(int x) { return x * x; }").VHDL
	assertContains(t, vhdl, "      result <= x * x;\n")
	assertNotContains(t, vhdl, "(x * x)")
}

func TestGenerate_EntityPerFunction(t *testing.T) {
	src := `
int first(int a) { return a; }
struct S { int v; };
char second(char c) { return c; }
double third(double d) { return d; }
void fourth() { }
`
	vhdl := compileOK(t, src).VHDL
	names := []string{"first", "second", "third", "fourth"}
	last := -1
	for _, name := range names {
		if n := strings.Count(vhdl, "entity "+name+" is"); n != 1 {
			t.Errorf("entity %s: got %d, want 1", name, n)
		}
		if n := strings.Count(vhdl, "architecture behavioral of "+name+" is"); n != 1 {
			t.Errorf("architecture %s: got %d, want 1", name, n)
		}
		pos := strings.Index(vhdl, "entity "+name+" is")
		if pos < last {
			t.Errorf("entity %s out of source order", name)
		}
		last = pos
	}
	assertContains(t, vhdl, "    c : in std_logic_vector(7 downto 0);\n    result : out std_logic_vector(7 downto 0)\n")
	assertContains(t, vhdl, "    d : in std_logic_vector(63 downto 0);\n    result : out std_logic_vector(63 downto 0)\n")
	assertContains(t, vhdl, "entity fourth is\n  port (\n    clk   : in  std_logic;\n    reset : in  std_logic;\n    result : out std_logic_vector(31 downto 0)\n")

	if rec := strings.Index(vhdl, "type S_t is record"); rec < 0 || rec > strings.Index(vhdl, "entity first") {
		t.Errorf("records must precede entities")
	}
}

func TestGenerate_BoundsError(t *testing.T) {
	src := "int f() {\n  int arr[3] = {1,2,3};\n  arr[5] = 0;\n  return 0;\n}"
	res, err := Compile(src, Options{})
	if res != nil {
		t.Errorf("no result expected on fatal error")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cerr.Line != 3 || !strings.Contains(cerr.Source, "arr[5] = 0;") {
		t.Errorf("error should cite line 3, got line %d %q", cerr.Line, cerr.Source)
	}
}

func TestGenerate_ForLoop(t *testing.T) {
	vhdl := compileOK(t, "void f() { int i; for (i = 0; i < 5; i = i + 1) { } }").VHDL

	assertContains(t, vhdl, "  signal i : std_logic_vector(31 downto 0);\n")
	assertContains(t, vhdl, "      i <= 0;\n      while unsigned(i) < to_unsigned(5, 32) loop\n        i <= i + 1;\n      end loop;\n")
	if n := strings.Count(vhdl, "while "); n != 1 {
		t.Errorf("expected one loop, got %d", n)
	}
	if n := strings.Count(vhdl, "i <= i + 1;"); n != 1 {
		t.Errorf("increment must appear exactly once, got %d", n)
	}
}

func TestGenerate_ForLoopBodyOrder(t *testing.T) {
	src := `
int sum() {
	int s = 0;
	for (int j = 0; j < 4; j++) {
		if (j == 2) { continue; }
		s = s + j;
	}
	for (;;) { break; }
	return s;
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, "  signal s : std_logic_vector(31 downto 0);\n  signal j : std_logic_vector(31 downto 0);\n")
	assertContains(t, vhdl, `      j <= 0;
      while unsigned(j) < to_unsigned(4, 32) loop
        if unsigned(j) = to_unsigned(2, 32) then
          next;
        end if;
        s <= s + j;
        j <= j + 1;
      end loop;
`)
	assertContains(t, vhdl, "      while to_unsigned(1, 32) /= 0 loop\n        exit;\n      end loop;\n")
}

func TestGenerate_StructReturn(t *testing.T) {
	src := `
struct P { int x; int y; };
struct P make(int a) {
	struct P p = {a, 2};
	return p;
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, "-- Struct P as VHDL record\ntype P_t is record\n  x : std_logic_vector(31 downto 0);\n  y : std_logic_vector(31 downto 0);\nend record;\n\n")
	assertContains(t, vhdl, "    result : out P_t\n")
	assertContains(t, vhdl, "  signal p : P_t;\n")
	assertContains(t, vhdl, "      p.x <= a;\n      p.y <= to_unsigned(2, 32);\n")
	assertContains(t, vhdl, "      result.x <= p.x;\n      result.y <= p.y;\n")
	assertNotContains(t, vhdl, "result <= p;")
}

func TestGenerate_StructParamsAndFields(t *testing.T) {
	src := `
struct V { int x; char c; };
struct W { struct V inner; double d; };
int getx(struct V v, struct W w) {
	struct V partial = {7};
	w.inner.x = v.x;
	return w.inner.x + partial.x;
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, "  inner : V_t;\n")
	assertContains(t, vhdl, "    v : in V_t;\n    w : in W_t;\n")
	assertContains(t, vhdl, "      partial.x <= to_unsigned(7, 32);\n      partial.c <= 0;\n")
	assertContains(t, vhdl, "      w.inner.x <= v.x;\n")
	assertContains(t, vhdl, "      result <= w.inner.x + partial.x;\n")
}

func TestGenerate_ResultCollision(t *testing.T) {
	src := `
int f(int a) {
	int result = a;
	int arr[2];
	result = result + 1;
	result++;
	if (result > 2) { result = 0; }
	while (result) { result = result - 1; }
	arr[result] = 1;
	return result;
}`
	vhdl := compileOK(t, src).VHDL
	for _, want := range []string{
		"  signal result_local : std_logic_vector(31 downto 0);\n",
		"      result_local <= a;\n",
		"      result_local <= result_local + 1;\n",
		"      if unsigned(result_local) > to_unsigned(2, 32) then\n        result_local <= 0;\n",
		"      while unsigned(result_local) /= 0 loop\n        result_local <= result_local - 1;\n",
		"      arr(result_local) <= 1;\n",
		"      result <= result_local;\n",
	} {
		assertContains(t, vhdl, want)
	}
	for _, bad := range []string{"signal result ", "result <= result +", "(result)", "unsigned(result)", "result <= a;"} {
		assertNotContains(t, vhdl, bad)
	}
}

func TestGenerate_Arrays(t *testing.T) {
	src := `
int f(int i) {
	int arr[3] = {1, -2, 3};
	float w[2] = {1.5, 2.5};
	char buf[4];
	buf[i + 1] = arr[2];
	return arr[i];
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, `  type arr_type is array (0 to 2) of std_logic_vector(31 downto 0);
  -- Array initialization
  constant arr_init : arr_type := ("00000000000000000000000000000001", "11111111111111111111111111111110", "00000000000000000000000000000011");
  signal arr : arr_type := arr_init;
`)
	assertContains(t, vhdl, "  constant w_init : w_type := (1.5, 2.5);\n")
	assertContains(t, vhdl, "  type buf_type is array (0 to 3) of std_logic_vector(7 downto 0);\n  signal buf : buf_type;\n")
	assertContains(t, vhdl, "      buf(i+1) <= arr(2);\n")
	assertContains(t, vhdl, "      result <= arr(i);\n")
	if n := strings.Count(vhdl, "signal arr :"); n != 1 {
		t.Errorf("array signal declared %d times", n)
	}
}

func TestGenerate_ShortArrayInit(t *testing.T) {
	vhdl := compileOK(t, "int f(int i) { int a[3] = {1, 2}; char c[2] = {1, 2}; return a[i]; }").VHDL
	assertContains(t, vhdl, `  constant a_init : a_type := ("00000000000000000000000000000001", "00000000000000000000000000000010", others => (others => '0'));`+"\n")
	assertContains(t, vhdl, "  constant c_init : c_type := ('1', '2');\n")
}

func TestGenerate_DoubleNegation(t *testing.T) {
	vhdl := compileOK(t, "int f(int x) { int a = -(-5); int b = -(-x); return a + b; }").VHDL
	if strings.Contains(vhdl, "--5") || strings.Contains(vhdl, "--x") {
		t.Errorf("double negation folded into a VHDL comment:\n%s", vhdl)
	}
	assertContains(t, vhdl, "a <= 0 - to_signed(-5, 32);\n")
	assertContains(t, vhdl, "b <= 0 - (-unsigned(x));\n")
}

func TestGenerate_Expressions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"a == b", "unsigned(a) = unsigned(b)"},
		{"a != 3", "unsigned(a) /= to_unsigned(3, 32)"},
		{"a < -1", "unsigned(a) < to_signed(-1, 32)"},
		{"a + 1 >= b", "unsigned(a + 1) >= unsigned(b)"},
		{"a && b", "(unsigned(a) /= 0 and unsigned(b) /= 0)"},
		{"a < b || c", "((unsigned(a) < unsigned(b)) or unsigned(c) /= 0)"},
		{"a & b", "unsigned(a) and unsigned(b)"},
		{"a | b", "unsigned(a) or unsigned(b)"},
		{"a ^ b", "unsigned(a) xor unsigned(b)"},
		{"a << 2", "shift_left(unsigned(a), to_integer(unsigned(2)))"},
		{"a >> b", "shift_right(unsigned(a), to_integer(unsigned(b)))"},
		{"!a", "(unsigned(a) = 0)"},
		{"!(a < b)", "not (unsigned(a) < unsigned(b))"},
		{"~a", "not unsigned(a)"},
		{"-5", "to_signed(-5, 32)"},
		{"-a", "-unsigned(a)"},
		{"p.x + arr[i]", "p.x + arr(i)"},
		{"g(a, 1)", "g(a, 1)"},
		{"a * b + c", "a * b + c"},
		{"(a + b) * c", "(a + b) * c"},
		{"a - (b - c)", "a - (b - c)"},
		{"a - b - c", "a - b - c"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			vhdl := compileOK(t, "int f() { return "+tt.expr+"; }").VHDL
			assertContains(t, vhdl, "      result <= "+tt.want+";\n")
		})
	}
}

func TestGenerate_Conditions(t *testing.T) {
	tests := []struct {
		cond string
		want string
	}{
		{"x", "unsigned(x) /= 0"},
		{"1", "to_unsigned(1, 32) /= 0"},
		{"x + 1", "unsigned(x + 1) /= 0"},
		{"x & 4", "unsigned(unsigned(x) and unsigned(4)) /= 0"},
		{"!x", "(unsigned(x) = 0)"},
		{"~x", "unsigned(not unsigned(x)) /= 0"},
		{"x >= 2", "unsigned(x) >= to_unsigned(2, 32)"},
		{"x && y", "(unsigned(x) /= 0 and unsigned(y) /= 0)"},
		{"ready(x)", "unsigned(ready(x)) /= 0"},
		{"s.flag", "unsigned(s.flag) /= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			vhdl := compileOK(t, "int f(int x, int y) { if ("+tt.cond+") { return 1; } return 0; }").VHDL
			assertContains(t, vhdl, "      if "+tt.want+" then\n        result <= 1;\n      end if;\n")
		})
	}
}

func TestGenerate_IfChain(t *testing.T) {
	src := `
int classify(int x) {
	if (x < 0) {
		return 0;
	} else if (x == 0) {
		return 1;
	} else {
		while (x > 10) { x = x - 10; }
		return 2;
	}
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, `      if unsigned(x) < to_unsigned(0, 32) then
        result <= 0;
      elsif unsigned(x) = to_unsigned(0, 32) then
        result <= 1;
      else
        while unsigned(x) > to_unsigned(10, 32) loop
          x <= x - 10;
        end loop;
        result <= 2;
      end if;
`)
}

func TestGenerate_CallStatement(t *testing.T) {
	src := `
int helper(int v) { return v; }
int f(int a) {
	helper(a + 1);
	int b = helper(a);
	return b;
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, "      -- call discarded: helper((a + 1))\n")
	assertContains(t, vhdl, "      b <= helper(a);\n")
}

func TestGenerate_SignalsCollected(t *testing.T) {
	src := `
int f(int n) {
	int i;
	if (n) { int t = n; i = t; }
	for (int i = 0; i < n; i++) { int u; u = i; }
	return i;
}`
	vhdl := compileOK(t, src).VHDL
	assertContains(t, vhdl, "  signal i : std_logic_vector(31 downto 0);\n  signal t : std_logic_vector(31 downto 0);\n  signal u : std_logic_vector(31 downto 0);\nbegin\n")
	if n := strings.Count(vhdl, "signal i :"); n != 1 {
		t.Errorf("signal i declared %d times", n)
	}
}

func TestGenerate_StructLookupMiss(t *testing.T) {
	src := `
struct Q make() {
	struct Q q = {1, 2};
	return q;
}`
	res := compileOK(t, src)
	assertNotContains(t, res.VHDL, "q.")
	assertNotContains(t, res.VHDL, "result <= q;")
	assertContains(t, res.VHDL, "    result : out Q_t\n")

	var lookups int
	for _, w := range res.Warnings {
		if w.Code == CodeStructLookup {
			lookups++
			if w.Fatal() {
				t.Errorf("lookup misses must not be fatal")
			}
		}
	}
	if lookups != 2 {
		t.Errorf("expected 2 lookup warnings, got %d: %v", lookups, res.Warnings)
	}
}

func TestGenerate_DuplicateStructUsesFirst(t *testing.T) {
	src := `
struct S { int a; };
struct S { int b; int c; };
int f() { return 0; }`
	vhdl := compileOK(t, src).VHDL
	if n := strings.Count(vhdl, "type S_t is record"); n != 1 {
		t.Errorf("record emitted %d times", n)
	}
	assertContains(t, vhdl, "  a : std_logic_vector(31 downto 0);\nend record;")
	assertNotContains(t, vhdl, "  b : ")
}

func TestGenerateRejectsNonProgram(t *testing.T) {
	if _, err := Generate(NewNode(Statement, "", 1), NewContext(), Options{}); err == nil {
		t.Error("expected error for non-Program root")
	}
}
