// Copyright 2026 The Lattice Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import "strings"

// edge is a per-segment literal child (linear scan, no map hashing).
type edge struct {
	label string
	node  *node
}

// node is one segment position in the route tree.
//
// Each node has at most one parameter child and at most one catch-all child;
// a catch-all always terminates matching by absorbing the remaining
// segments. Routes are attached per method; registering the same
// (method, node) twice silently overwrites (last write wins).
//
// Thread safety: the tree is built during the single-threaded configuration
// phase and is read-only while serving, so matching needs no locks.
type node struct {
	edges    []edge
	param    *paramEdge
	wildcard *wildcardEdge
	routes   map[string]*Route
}

// paramEdge captures one dynamic segment like ":id" under its bound name.
type paramEdge struct {
	key  string
	node *node
}

// wildcardEdge captures all remaining segments like "*path" under its bound
// name.
type wildcardEdge struct {
	key  string
	node *node
}

// defaultWildcardName is used for a bare "*" segment.
const defaultWildcardName = "filepath"

func (n *node) findChild(segment string) *node {
	for i := range n.edges {
		if n.edges[i].label == segment {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *node) findOrCreateChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{}
	n.edges = append(n.edges, edge{label: segment, node: child})
	return child
}

func (n *node) setRoute(method string, rt *Route) {
	if n.routes == nil {
		n.routes = make(map[string]*Route, 2)
	}
	n.routes[method] = rt
}

// splitPath splits a path into its non-empty "/"-delimited segments.
// "/" and "" both yield no segments (the root node).
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// addRoute inserts a route pattern into the tree.
//
// Pattern segments starting with ':' become the node's single parameter
// child bound to the rest of the segment; segments starting with '*' become
// the node's single catch-all child and terminate the pattern.
func (n *node) addRoute(method, pattern string, rt *Route) {
	current := n

	for _, segment := range splitPath(pattern) {
		switch {
		case strings.HasPrefix(segment, ":"):
			name := segment[1:]
			if current.param == nil {
				current.param = &paramEdge{key: name, node: &node{}}
			}
			current = current.param.node

		case strings.HasPrefix(segment, "*"):
			name := segment[1:]
			if name == "" {
				name = defaultWildcardName
			}
			if current.wildcard == nil {
				current.wildcard = &wildcardEdge{key: name, node: &node{}}
			}
			current.wildcard.node.setRoute(method, rt)
			return

		default:
			current = current.findOrCreateChild(segment)
		}
	}

	current.setRoute(method, rt)
}

// match walks the tree depth-first over the path segments, binding
// parameters into c. Precedence at every node, recursively:
//
//  1. literal child matching the segment, fully recursed first;
//  2. on literal failure at any depth, backtrack and try the parameter
//     child, binding the segment;
//  3. on parameter failure, the catch-all child, binding the joined
//     remainder and stopping.
//
// Parameter bindings made along a failed branch are rolled back before the
// next alternative is tried, so the bindings seen by the handler belong to
// exactly the matched route. Returns nil when no terminal node has a route
// for the method; "unknown path" and "wrong method" are indistinguishable
// here by design.
func (n *node) match(method string, segments []string, c *Context) *Route {
	if len(segments) == 0 {
		return n.routes[method]
	}

	segment := segments[0]
	rest := segments[1:]

	if child := n.findChild(segment); child != nil {
		if rt := child.match(method, rest, c); rt != nil {
			return rt
		}
	}

	if n.param != nil {
		mark := c.paramsMark()
		c.setParam(n.param.key, segment)
		if rt := n.param.node.match(method, rest, c); rt != nil {
			return rt
		}
		c.paramsReset(mark)
	}

	if n.wildcard != nil {
		mark := c.paramsMark()
		c.setParam(n.wildcard.key, strings.Join(segments, "/"))
		if rt := n.wildcard.node.routes[method]; rt != nil {
			return rt
		}
		c.paramsReset(mark)
	}

	return nil
}
