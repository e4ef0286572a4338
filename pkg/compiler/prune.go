package compiler

import "fmt"

// Prune drops every function that top does not reach through calls. Other
// top-level nodes and the source order are kept. The input is not
// modified.
func Prune(prog *Node, top string) (*Node, error) {
	funcs := make(map[string]*Node)
	for _, fn := range Functions(prog) {
		if _, dup := funcs[fn.Text]; !dup {
			funcs[fn.Text] = fn
		}
	}
	if _, ok := funcs[top]; !ok {
		return nil, fmt.Errorf("top function %q not found", top)
	}

	reachable := make(map[string]bool)
	var worklist []string

	mark := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}
	mark(top)

	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]

		fn, exists := funcs[curr]
		if !exists {
			// Calls to names without a definition stay textual.
			continue
		}
		calls := make(map[string]bool)
		CollectCalls(fn, calls)
		for call := range calls {
			mark(call)
		}
	}

	pruned := &Node{Kind: prog.Kind, Type: prog.Type, Text: prog.Text, Line: prog.Line}
	for _, c := range prog.Children {
		if c.Kind == FunctionDecl && !reachable[c.Text] {
			continue
		}
		pruned.Children = append(pruned.Children, c)
	}
	return pruned, nil
}
