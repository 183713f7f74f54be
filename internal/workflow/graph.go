// Package workflow holds the typed successor tables that drive the case,
// submission and account state machines.
//
// A Graph is built once from a spec (embedded YAML by default) and is
// read-only afterwards, so it can be shared by concurrent requests. The
// role requirement is a property of the target state: an actor may enter a
// state only if its role is listed on that state. A source state may narrow
// the roles for one of its edges, so a stage-specific action such as a
// checker rejecting at the checker stage can be told apart from the same
// target reached from a later stage.
package workflow

import (
	"fmt"
	"slices"

	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

// State is a node name in a graph.
type State string

// NodeSpec declares one state: where it may go next and who may enter it.
// Edges overrides Roles of the target for moves out of this state.
type NodeSpec struct {
	State State                   `yaml:"state"`
	Next  []State                 `yaml:"next"`
	Roles []domain.Role           `yaml:"roles"`
	Edges map[State][]domain.Role `yaml:"edges"`
}

// GraphSpec is the serialisable form of a Graph.
type GraphSpec struct {
	Name    string     `yaml:"name"`
	Initial State      `yaml:"initial"`
	States  []NodeSpec `yaml:"states"`
}

type node struct {
	next  []State
	roles []domain.Role
	edges map[State][]domain.Role
}

// Graph is an immutable adjacency table.
type Graph struct {
	name    string
	initial State
	nodes   map[State]node
	order   []State
}

// NewGraph validates spec and builds the table. Every successor must be a
// declared state and every role must be known.
func NewGraph(spec GraphSpec) (*Graph, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("workflow graph requires a name")
	}
	g := &Graph{name: spec.Name, initial: spec.Initial, nodes: make(map[State]node, len(spec.States))}
	for _, ns := range spec.States {
		if ns.State == "" {
			return nil, fmt.Errorf("%s: state name cannot be empty", spec.Name)
		}
		if _, dup := g.nodes[ns.State]; dup {
			return nil, fmt.Errorf("%s: duplicate state %s", spec.Name, ns.State)
		}
		if err := validRoles(spec.Name, ns.State, ns.Roles); err != nil {
			return nil, err
		}
		edges := make(map[State][]domain.Role, len(ns.Edges))
		for to, roles := range ns.Edges {
			if !slices.Contains(ns.Next, to) {
				return nil, fmt.Errorf("%s: state %s narrows roles for %s, which is not a successor", spec.Name, ns.State, to)
			}
			if err := validRoles(spec.Name, ns.State, roles); err != nil {
				return nil, err
			}
			edges[to] = slices.Clone(roles)
		}
		g.nodes[ns.State] = node{next: slices.Clone(ns.Next), roles: slices.Clone(ns.Roles), edges: edges}
		g.order = append(g.order, ns.State)
	}
	for _, s := range g.order {
		for _, n := range g.nodes[s].next {
			if _, ok := g.nodes[n]; !ok {
				return nil, fmt.Errorf("%s: state %s points to undeclared state %s", spec.Name, s, n)
			}
		}
	}
	if _, ok := g.nodes[g.initial]; !ok {
		return nil, fmt.Errorf("%s: initial state %q is not declared", spec.Name, spec.Initial)
	}
	return g, nil
}

func validRoles(graph string, state State, roles []domain.Role) error {
	for _, r := range roles {
		if !r.IsValid() {
			return fmt.Errorf("%s: state %s lists unknown role %q", graph, state, r)
		}
	}
	return nil
}

func (g *Graph) Name() string   { return g.name }
func (g *Graph) Initial() State { return g.initial }

// Allows reports whether to is a configured successor of from.
func (g *Graph) Allows(from, to State) bool {
	n, ok := g.nodes[from]
	return ok && slices.Contains(n.next, to)
}

// Authorize reports whether role may enter to.
func (g *Graph) Authorize(to State, role domain.Role) bool {
	n, ok := g.nodes[to]
	return ok && slices.Contains(n.roles, role)
}

// AuthorizeStep reports whether role may take the edge from -> to. An edge
// with its own role list uses it; otherwise the target's roles apply.
func (g *Graph) AuthorizeStep(from, to State, role domain.Role) bool {
	if roles, ok := g.nodes[from].edges[to]; ok {
		return slices.Contains(roles, role)
	}
	return g.Authorize(to, role)
}

// Check validates a single step. The successor check runs before the role
// check, so an impossible move is reported as such regardless of who asks.
func (g *Graph) Check(from, to State, role domain.Role) error {
	if !g.Allows(from, to) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("%s cannot move from %s to %s", g.name, from, to))
	}
	if !g.AuthorizeStep(from, to, role) {
		return dErrors.New(dErrors.CodeUnauthorizedActor,
			fmt.Sprintf("role %s may not move %s from %s to %s", role, g.name, from, to))
	}
	return nil
}

// ValidWalk verifies that states starts at the initial state and that every
// step is a configured edge.
func (g *Graph) ValidWalk(states []State) error {
	if len(states) == 0 {
		return nil
	}
	if states[0] != g.initial {
		return fmt.Errorf("%s walk starts at %s, want %s", g.name, states[0], g.initial)
	}
	for i := 1; i < len(states); i++ {
		if !g.Allows(states[i-1], states[i]) {
			return fmt.Errorf("%s walk step %d: %s -> %s is not an edge", g.name, i, states[i-1], states[i])
		}
	}
	return nil
}
