// Copyright © 2018 The ELPS authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/lang"
)

// symbolCompleter implements readline.AutoCompleter by enumerating the vars
// visible from the runtime's current namespace.
type symbolCompleter struct {
	rt *interp.Runtime
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == '[' || ch == '{' || ch == '\n' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collectSymbols(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, sym := range candidates {
		result = append(result, []rune(sym[len(prefix):]))
	}
	return result, len(prefix)
}

func (c *symbolCompleter) collectSymbols(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	cur := c.rt.Namespace()
	for _, name := range varNames(cur, false) {
		add(name)
	}
	core := c.rt.Registry.Core()
	if core != cur {
		for _, name := range varNames(core, true) {
			add(name)
		}
	}

	// Qualified names like "clojure.core/ma" complete within the namespace.
	if i := strings.IndexByte(prefix, '/'); i > 0 {
		nsName := prefix[:i]
		ns := cur.LookupAlias(lang.NewSymbol("", nsName))
		if ns == nil {
			ns = c.rt.Registry.Find(lang.NewSymbol("", nsName))
		}
		if ns != nil {
			for _, name := range varNames(ns, ns != cur) {
				add(nsName + "/" + name)
			}
		}
	} else {
		for _, ns := range c.rt.Registry.All() {
			add(ns.Name().Name + "/")
		}
	}

	sort.Strings(result)
	return result
}

func varNames(ns *lang.Namespace, publicOnly bool) []string {
	var names []string
	for s := ns.Mappings().Seq(); s != nil; s = s.Next() {
		e := s.First().(*lang.MapEntry)
		v, ok := e.Val().(*lang.Var)
		if !ok || publicOnly && !v.IsPublic() {
			continue
		}
		names = append(names, e.Key().(*lang.Symbol).Name)
	}
	return names
}
