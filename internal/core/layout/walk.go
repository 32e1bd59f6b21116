package layout

import "fmt"

// Visitor receives each node of a model in rendering order.
type Visitor interface {
	VisitInfo(*Info) error
	VisitStatus(*Status) error
	VisitShowcase(*Showcase) error
	VisitOpaque(*Opaque) error
}

// Funcs adapts optional functions to a Visitor. Nil functions skip the node.
type Funcs struct {
	Info     func(*Info) error
	Status   func(*Status) error
	Showcase func(*Showcase) error
	Opaque   func(*Opaque) error
}

func (f Funcs) VisitInfo(n *Info) error {
	if f.Info == nil {
		return nil
	}
	return f.Info(n)
}

func (f Funcs) VisitStatus(n *Status) error {
	if f.Status == nil {
		return nil
	}
	return f.Status(n)
}

func (f Funcs) VisitShowcase(n *Showcase) error {
	if f.Showcase == nil {
		return nil
	}
	return f.Showcase(n)
}

func (f Funcs) VisitOpaque(n *Opaque) error {
	if f.Opaque == nil {
		return nil
	}
	return f.Opaque(n)
}

// Walk visits every node in order and stops at the first error.
func (m *Model) Walk(v Visitor) error {
	for i, n := range m.nodes {
		var err error
		switch typed := n.(type) {
		case *Info:
			err = v.VisitInfo(typed)
		case *Status:
			err = v.VisitStatus(typed)
		case *Showcase:
			err = v.VisitShowcase(typed)
		case *Opaque:
			err = v.VisitOpaque(typed)
		default:
			err = fmt.Errorf("unknown layout node %T", n)
		}
		if err != nil {
			return fmt.Errorf("node %d (%s): %w", i, n.Kind(), err)
		}
	}
	return nil
}
