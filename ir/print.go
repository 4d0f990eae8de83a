// Copyright © 2018 The ELPS authors

package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luthersystems/cljgo/lang"
)

// Print renders a node tree as an s-expression for debugging and tests.
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Const:
		b.WriteString("(const ")
		b.WriteString(lang.PrintString(n.Value))
		b.WriteByte(')')
	case *VarRef:
		fmt.Fprintf(b, "(var %v)", n.Var)
	case *Host:
		fmt.Fprintf(b, "(host %s)", n.Name)
	case *Local:
		fmt.Fprintf(b, "(local %s)", n.Name)
	case *Argument:
		if n.Rest {
			fmt.Fprintf(b, "(arg& %s %d)", n.Name, n.Index)
		} else {
			fmt.Fprintf(b, "(arg %s %d)", n.Name, n.Index)
		}
	case *Closure:
		fmt.Fprintf(b, "(closure %s ", n.Name)
		printNode(b, n.Target)
		b.WriteByte(')')
	case *Self:
		b.WriteString("(self)")
	case *StoreLocal:
		fmt.Fprintf(b, "(store %s ", n.Name)
		printNode(b, n.Value)
		b.WriteByte(')')
	case *Do:
		b.WriteString("(do")
		printList(b, n.Body)
		b.WriteByte(')')
	case *If:
		b.WriteString("(if")
		printList(b, []Node{n.Test, n.Then, n.Else})
		b.WriteByte(')')
	case *Call:
		b.WriteString("(call")
		printList(b, append([]Node{n.Fn}, n.Args...))
		b.WriteByte(')')
	case *Method:
		fmt.Fprintf(b, "(method .%s", n.Name)
		printList(b, append([]Node{n.Target}, n.Args...))
		b.WriteByte(')')
	case *Property:
		fmt.Fprintf(b, "(prop -%s ", n.Name)
		printNode(b, n.Target)
		b.WriteByte(')')
	case *Loop:
		b.WriteString("(loop [")
		for i, name := range n.Bindings {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(name)
			b.WriteByte(' ')
			printNode(b, n.Inits[i])
		}
		b.WriteString("] ")
		printNode(b, n.Body)
		b.WriteByte(')')
	case *Recur:
		b.WriteString("(recur")
		printList(b, n.Args)
		b.WriteByte(')')
	case *Fn:
		b.WriteString("(fn")
		if n.Name != "" {
			b.WriteByte(' ')
			b.WriteString(n.Name)
		}
		for _, c := range n.Clauses {
			b.WriteString(" (clause [")
			b.WriteString(strings.Join(c.Params, " "))
			if c.Rest != "" {
				if len(c.Params) > 0 {
					b.WriteByte(' ')
				}
				b.WriteString("& ")
				b.WriteString(c.Rest)
			}
			b.WriteString("] ")
			if c.Guard.Exact {
				b.WriteString("=")
			} else {
				b.WriteString(">=")
			}
			b.WriteString(strconv.Itoa(c.Guard.Min))
			b.WriteByte(' ')
			printNode(b, c.Body)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *Try:
		b.WriteString("(try ")
		printNode(b, n.Body)
		for _, c := range n.Catches {
			b.WriteString(" (catch ")
			printNode(b, c.Type)
			fmt.Fprintf(b, " %s ", c.Binding)
			printNode(b, c.Body)
			b.WriteByte(')')
		}
		if n.Finally != nil {
			b.WriteString(" (finally ")
			printNode(b, n.Finally)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *Throw:
		b.WriteString("(throw ")
		printNode(b, n.Value)
		b.WriteByte(')')
	case *Is:
		b.WriteString("(is?")
		printList(b, []Node{n.Left, n.Right})
		b.WriteByte(')')
	case *Def:
		fmt.Fprintf(b, "(def %v", n.Var)
		if n.Value != nil {
			b.WriteByte(' ')
			printNode(b, n.Value)
		}
		b.WriteByte(')')
	case *InNS:
		fmt.Fprintf(b, "(in-ns %s)", n.Name)
	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}

func printList(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		b.WriteByte(' ')
		printNode(b, n)
	}
}
