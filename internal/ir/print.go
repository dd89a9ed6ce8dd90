package ir

import (
	"fmt"
	"strings"
)

// Print renders a body in a stable textual form, one statement per line, nested
// bodies indented with two spaces.
//
//	x@1 = 42
//	if p
//	  print(x)
//	else
//	  del x@2 (tolerant)
func Print(b *Body) string {
	var buf strings.Builder
	printBody(&buf, b, "")
	return buf.String()
}

// StmtString renders a single statement without nested bodies.
func StmtString(s Stmt) string {
	switch v := s.(type) {
	case *Assign:
		return fmt.Sprintf("%s = %s", v.Target, ExprString(v.Source))
	case *Del:
		if v.Tolerant {
			return fmt.Sprintf("del %s (tolerant)", v.Target)
		}
		return fmt.Sprintf("del %s", v.Target)
	case *Release:
		return "release " + v.Variable.Name
	case *ExprOnly:
		return ExprString(v.Expr)
	case *Branch:
		return "if " + ExprString(v.Cond)
	case *Opaque:
		return "opaque " + v.What
	default:
		panic(fmt.Errorf("unexpected statement %T", s))
	}
}

func printBody(buf *strings.Builder, b *Body, indent string) {
	for _, s := range b.Stmts {
		buf.WriteString(indent)
		buf.WriteString(StmtString(s))
		buf.WriteByte('\n')

		br, ok := s.(*Branch)
		if !ok {
			continue
		}
		printBody(buf, br.Then, indent+"  ")
		if len(br.Else.Stmts) > 0 {
			buf.WriteString(indent)
			buf.WriteString("else\n")
			printBody(buf, br.Else, indent+"  ")
		}
	}
}

// ExprString renders an expression.
func ExprString(e Expr) string {
	switch v := e.(type) {
	case *Constant:
		var text string
		switch val := v.Value.(type) {
		case string:
			text = fmt.Sprintf("%q", val)
		case nil:
			text = "None"
		default:
			text = fmt.Sprint(val)
		}
		if v.Mutable {
			return "mutable(" + text + ")"
		}
		return text
	case *VarRef:
		return v.Variable.Name
	case *NameRead:
		return "locals()"
	case *Call:
		return v.Callee + "(" + listString(v.Args) + ")"
	case *SideEffects:
		parts := append(append([]Expr{}, v.Effects...), v.Value)
		return "sideeffects(" + listString(parts) + ")"
	case *Raise:
		return "raise " + v.Kind
	default:
		panic(fmt.Errorf("unexpected expression %T", e))
	}
}

func listString(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}
