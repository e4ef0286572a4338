package compiler

import (
	"strings"
	"testing"

	"cvhdl/pkg/diag"
)

func TestStructTable(t *testing.T) {
	t.Run("DefineAndLookup", func(t *testing.T) {
		var st StructTable
		if !st.Define(&StructInfo{Name: "P", Fields: []Field{{"x", "int"}, {"y", "int"}}}) {
			t.Fatal("first definition should be new")
		}
		info, ok := st.Lookup("P")
		if !ok || len(info.Fields) != 2 {
			t.Fatalf("lookup P: %+v %v", info, ok)
		}
		f, ok := info.Field("y")
		if !ok || f.Type != "int" {
			t.Errorf("field y: %+v %v", f, ok)
		}
		if _, ok := info.Field("z"); ok {
			t.Error("field z should not exist")
		}
		if _, ok := st.Lookup("Q"); ok {
			t.Error("Q should not be registered")
		}
	})

	t.Run("DuplicateFirstWins", func(t *testing.T) {
		var st StructTable
		st.Define(&StructInfo{Name: "S", Fields: []Field{{"a", "int"}}})
		if st.Define(&StructInfo{Name: "S", Fields: []Field{{"b", "char"}}}) {
			t.Error("redefinition should report an existing name")
		}
		info, _ := st.Lookup("S")
		if info.Fields[0].Name != "a" {
			t.Errorf("lookup should return the first definition, got %+v", info)
		}
		if st.Len() != 2 || len(st.Names()) != 1 {
			t.Errorf("Len=%d Names=%v", st.Len(), st.Names())
		}
	})
}

func TestArrayTable(t *testing.T) {
	var at ArrayTable
	if _, ok := at.Size("a"); ok {
		t.Fatal("empty table should have no entries")
	}
	at.Register("a", 3)
	at.Register("b", 8)
	if size, ok := at.Size("a"); !ok || size != 3 {
		t.Errorf("a: got %d %v", size, ok)
	}
	at.Register("a", 5)
	if size, _ := at.Size("a"); size != 5 {
		t.Errorf("re-registering should replace the size, got %d", size)
	}
	at.Reset()
	if at.Len() != 0 {
		t.Errorf("Reset left %d entries", at.Len())
	}
}

func TestContext(t *testing.T) {
	ctx := NewContext()
	ctx.Structs.Define(&StructInfo{Name: "P", Fields: []Field{{"x", "int"}, {"tag", "char"}}})
	ctx.Arrays.Register("zeta", 2)
	ctx.Arrays.Register("alpha", 4)

	w := ctx.Warn(diag.Semantic, 7, CodeUnknownStruct, "Unknown struct type '%s'", "Q")
	if w.Fatal() || w.Line != 7 || len(ctx.Warnings) != 1 {
		t.Errorf("unexpected warning %+v", w)
	}

	dump := ctx.String()
	for _, want := range []string{"Structs\n", "{ int x; char tag }", "Arrays\n"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
	if strings.Index(dump, "alpha") > strings.Index(dump, "zeta") {
		t.Errorf("arrays should be sorted:\n%s", dump)
	}
}
