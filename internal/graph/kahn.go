package graph

import (
	"container/list"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ProcessingQueue holds the classes whose bases have all been emitted.
type ProcessingQueue struct {
	queue *list.List
}

// NewProcessingQueue creates a new empty processing queue.
func NewProcessingQueue() *ProcessingQueue {
	return &ProcessingQueue{
		queue: list.New(),
	}
}

// Enqueue adds a node to the back of the queue.
func (pq *ProcessingQueue) Enqueue(node string) {
	pq.queue.PushBack(node)
}

// Dequeue removes and returns the node at the front of the queue.
// Returns empty string and false if queue is empty.
func (pq *ProcessingQueue) Dequeue() (string, bool) {
	if pq.queue.Len() == 0 {
		return "", false
	}
	elem := pq.queue.Front()
	pq.queue.Remove(elem)
	return elem.Value.(string), true
}

// Len returns the number of nodes in the queue.
func (pq *ProcessingQueue) Len() int {
	return pq.queue.Len()
}

// IsEmpty returns true if the queue has no nodes.
func (pq *ProcessingQueue) IsEmpty() bool {
	return pq.queue.Len() == 0
}

// CalculateInDegrees returns the number of direct bases of every class.
func (g *Graph) CalculateInDegrees() map[string]int {
	inDegree := make(map[string]int, len(g.Nodes))
	for name := range g.Nodes {
		inDegree[name] = len(g.Parents[name])
	}
	return inDegree
}

// initializeQueue enqueues the classes without bases in name order.
func (g *Graph) initializeQueue(inDegree map[string]int) *ProcessingQueue {
	pq := NewProcessingQueue()
	for _, name := range g.sortedNames() {
		if inDegree[name] == 0 {
			pq.Enqueue(name)
		}
	}
	return pq
}

// sortedChildren returns the direct subclasses of base in name order.
func (g *Graph) sortedChildren(base string) []string {
	children := append([]string(nil), g.Children[base]...)
	sort.Strings(children)
	return children
}

// ErrCycleDetected is returned when classes inherit from each other.
var ErrCycleDetected = errors.New("cycle detected in inheritance graph")

// CycleInfo describes the classes a topological sort could not place.
type CycleInfo struct {
	TotalNodes        int      // Total number of classes in the graph
	ProcessedNodes    int      // Number of classes ordered before the sort stalled
	UnprocessedNodes  []string // Classes in a cycle or deriving from one
	CycleParticipants []string // Classes that are part of a cycle
	CyclePath         []string // One cycle, e.g. [A, B, A]
}

// CycleError reports an inheritance cycle.
type CycleError struct {
	Info *CycleInfo
}

// Error lists the classes in the cycle and the classes blocked by it.
func (e *CycleError) Error() string {
	msg := fmt.Sprintf("cycle detected in inheritance graph: %d of %d classes could not be ordered",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)

	if len(e.Info.CyclePath) > 0 {
		msg += fmt.Sprintf("\nCycle path: %s", strings.Join(e.Info.CyclePath, " -> "))
	}

	if len(e.Info.CycleParticipants) > 0 {
		msg += fmt.Sprintf("\nClasses in cycle: %s", strings.Join(e.Info.CycleParticipants, ", "))
	}

	if len(e.Info.UnprocessedNodes) > len(e.Info.CycleParticipants) {
		participantSet := make(map[string]bool)
		for _, p := range e.Info.CycleParticipants {
			participantSet[p] = true
		}

		var blocked []string
		for _, u := range e.Info.UnprocessedNodes {
			if !participantSet[u] {
				blocked = append(blocked, u)
			}
		}

		if len(blocked) > 0 {
			msg += fmt.Sprintf("\nClasses blocked by cycle: %s", strings.Join(blocked, ", "))
		}
	}

	return msg
}

// Is makes errors.Is(err, ErrCycleDetected) hold for a *CycleError.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// DetectIncompleteProcessing runs Kahn's algorithm and describes the classes
// it could not place, or returns nil when the graph is acyclic.
func (g *Graph) DetectIncompleteProcessing() *CycleInfo {
	order, _ := g.kahn()
	if len(order) == len(g.Nodes) {
		return nil
	}
	return g.cycleInfo(order)
}

func (g *Graph) cycleInfo(order []string) *CycleInfo {
	processed := make(map[string]bool, len(order))
	for _, name := range order {
		processed[name] = true
	}

	var unprocessed []string
	unprocessedSet := make(map[string]bool)
	for _, name := range g.sortedNames() {
		if !processed[name] {
			unprocessed = append(unprocessed, name)
			unprocessedSet[name] = true
		}
	}

	var participants []string
	for _, name := range unprocessed {
		if g.canReachSelf(name, unprocessedSet) {
			participants = append(participants, name)
		}
	}

	var cyclePath []string
	if len(participants) > 0 {
		cyclePath = g.FindCyclePath(participants[0], unprocessedSet)
	}

	return &CycleInfo{
		TotalNodes:        len(g.Nodes),
		ProcessedNodes:    len(order),
		UnprocessedNodes:  unprocessed,
		CycleParticipants: participants,
		CyclePath:         cyclePath,
	}
}

// HasCycle returns true if some classes inherit from each other.
func (g *Graph) HasCycle() bool {
	return g.DetectIncompleteProcessing() != nil
}

// FindCyclePath returns a cycle through start within allowedNodes, with
// start at both ends, or nil.
func (g *Graph) FindCyclePath(start string, allowedNodes map[string]bool) []string {
	visited := make(map[string]bool)
	path := []string{start}

	if g.dfsFindPath(start, start, visited, allowedNodes, &path) {
		return path
	}

	return nil
}

func (g *Graph) dfsFindPath(current, target string, visited, allowedNodes map[string]bool, path *[]string) bool {
	for _, child := range g.sortedChildren(current) {
		if !allowedNodes[child] {
			continue
		}
		if child == target {
			*path = append(*path, target)
			return true
		}
		if visited[child] {
			continue
		}

		visited[child] = true
		*path = append(*path, child)

		if g.dfsFindPath(child, target, visited, allowedNodes, path) {
			return true
		}

		*path = (*path)[:len(*path)-1]
	}

	return false
}

func (g *Graph) canReachSelf(start string, allowedNodes map[string]bool) bool {
	visited := make(map[string]bool)
	return g.dfsCanReach(start, start, visited, allowedNodes, true)
}

// dfsCanReach reports whether target is reachable from current. isStart is
// true only for the initial call.
func (g *Graph) dfsCanReach(current, target string, visited, allowedNodes map[string]bool, isStart bool) bool {
	if current == target && !isStart {
		return true
	}
	if visited[current] || !allowedNodes[current] {
		return false
	}

	visited[current] = true
	for _, child := range g.GetChildren(current) {
		if g.dfsCanReach(child, target, visited, allowedNodes, false) {
			return true
		}
	}

	return false
}

// kahn orders the classes bases-first and returns the depth of every
// ordered class: 0 for classes without bases, otherwise one more than the
// deepest base. Ties are broken by name, so the order depends only on the
// graph's contents.
func (g *Graph) kahn() ([]string, map[string]int) {
	inDegree := g.CalculateInDegrees()
	queue := g.initializeQueue(inDegree)
	depth := make(map[string]int, len(g.Nodes))

	var order []string
	for !queue.IsEmpty() {
		node, _ := queue.Dequeue()
		order = append(order, node)

		for _, child := range g.sortedChildren(node) {
			depth[child] = max(depth[child], depth[node]+1)
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.Enqueue(child)
			}
		}
	}
	return order, depth
}

// TopologicalSort returns the classes with every base before the classes
// deriving from it. Returns a *CycleError if classes inherit from each other.
func (g *Graph) TopologicalSort() ([]string, error) {
	order, _ := g.kahn()
	if len(order) != len(g.Nodes) {
		return nil, &CycleError{Info: g.cycleInfo(order)}
	}
	return order, nil
}

// Level is a class with its distance from the hierarchy roots.
type Level struct {
	Name  string
	Depth int
}

// Levels returns the topological order together with each class's depth.
func (g *Graph) Levels() ([]Level, error) {
	order, depth := g.kahn()
	if len(order) != len(g.Nodes) {
		return nil, &CycleError{Info: g.cycleInfo(order)}
	}
	levels := make([]Level, len(order))
	for i, name := range order {
		levels[i] = Level{Name: name, Depth: depth[name]}
	}
	return levels, nil
}

// Validate checks the graph for inheritance cycles.
func (g *Graph) Validate() error {
	if info := g.DetectIncompleteProcessing(); info != nil {
		return &CycleError{Info: info}
	}
	return nil
}
