// Package elevator implements the level structure used by highest-label
// push-relabel: every node has a level in [0, MaxLevel()] and an active flag,
// and the structure answers "give me an active node on the highest level"
// in amortized O(1).
//
// # Layout
//
// Nodes live in an arena of parallel index arrays (level, active, next, prev).
// Each level below MaxLevel() owns two intrusive doubly linked lists, one of
// active and one of inactive residents, plus a resident count. Nodes on
// MaxLevel() are not kept in any list; they are never selected again.
//
// The highest active level is tracked lazily: it is raised on activation and
// lift, and only walked downward when queried. Within a phase levels never
// decrease, so the total downward walking is bounded by the number of lifts.
//
// # Thread Safety
//
// An Elevator is owned by a single solve and is not safe for concurrent use.
package elevator

const none = -1

// Elevator is a bucket queue of nodes keyed by level.
type Elevator struct {
	maxLevel int

	level  []int
	active []bool
	listed []bool
	next   []int
	prev   []int

	activeHead []int
	idleHead   []int
	count      []int

	// highest is an upper bound of the highest level holding an active node.
	highest int
	// occupied is an upper bound of the highest level holding any node.
	occupied  int
	initLevel int
}

// New creates an elevator for n nodes with MaxLevel() == n.
// All nodes start inactive on the top level.
func New(n int) *Elevator {
	if n < 0 {
		n = 0
	}
	e := &Elevator{
		maxLevel:   n,
		level:      make([]int, n),
		active:     make([]bool, n),
		listed:     make([]bool, n),
		next:       make([]int, n),
		prev:       make([]int, n),
		activeHead: make([]int, n),
		idleHead:   make([]int, n),
		count:      make([]int, n),
	}
	e.InitStart()
	e.InitFinish()
	return e
}

// MaxLevel returns the sentinel level of nodes proven unreachable.
func (e *Elevator) MaxLevel() int {
	return e.maxLevel
}

// NodeCount returns the number of nodes the elevator was built for.
func (e *Elevator) NodeCount() int {
	return len(e.level)
}

// Level returns the level of n.
func (e *Elevator) Level(n int) int {
	return e.level[n]
}

// Active reports whether n is active.
func (e *Elevator) Active(n int) bool {
	return e.active[n]
}

// =============================================================================
// Bulk initialization
// =============================================================================

// InitStart resets every node to the top level, inactive, and starts a bulk
// build at level 0.
func (e *Elevator) InitStart() {
	for n := range e.level {
		e.level[n] = e.maxLevel
		e.active[n] = false
		e.listed[n] = false
		e.next[n] = none
		e.prev[n] = none
	}
	for l := 0; l < e.maxLevel; l++ {
		e.activeHead[l] = none
		e.idleHead[l] = none
		e.count[l] = 0
	}
	e.highest = none
	e.occupied = none
	e.initLevel = 0
}

// InitAddItem places n on the level currently being built.
func (e *Elevator) InitAddItem(n int) {
	e.unlink(n)
	e.active[n] = false
	e.place(n, e.initLevel)
}

// InitNewLevel starts the next level of the bulk build.
func (e *Elevator) InitNewLevel() {
	e.initLevel++
}

// InitFinish ends the bulk build. Nodes never added stay on MaxLevel().
func (e *Elevator) InitFinish() {
	e.initLevel = 0
}

// =============================================================================
// Activation
// =============================================================================

// Activate marks n active. Activating an active node is a no-op.
func (e *Elevator) Activate(n int) {
	if e.active[n] {
		return
	}
	e.unlink(n)
	e.active[n] = true
	e.link(n)
}

// Deactivate marks n inactive. Deactivating an inactive node is a no-op.
func (e *Elevator) Deactivate(n int) {
	if !e.active[n] {
		return
	}
	e.unlink(n)
	e.active[n] = false
	e.link(n)
}

// HighestActive returns an active node on the highest level that has one.
func (e *Elevator) HighestActive() (int, bool) {
	e.settleHighest()
	if e.highest == none {
		return none, false
	}
	return e.activeHead[e.highest], true
}

// HighestActiveLevel returns the level of the node HighestActive returns,
// or -1 when there is no active node.
func (e *Elevator) HighestActiveLevel() int {
	e.settleHighest()
	return e.highest
}

// ActiveOn returns an active node on exactly level.
func (e *Elevator) ActiveOn(level int) (int, bool) {
	if level < 0 || level >= e.maxLevel || e.activeHead[level] == none {
		return none, false
	}
	return e.activeHead[level], true
}

// ActiveFree reports that level holds no active node.
func (e *Elevator) ActiveFree(level int) bool {
	_, ok := e.ActiveOn(level)
	return !ok
}

// =============================================================================
// Lifting
// =============================================================================

// LiftHighestActive moves the node returned by HighestActive to newLevel.
// The node stays active.
func (e *Elevator) LiftHighestActive(newLevel int) {
	if n, ok := e.HighestActive(); ok {
		e.lift(n, newLevel)
	}
}

// LiftHighestActiveToTop moves the node returned by HighestActive to
// MaxLevel(). Its active flag is kept but it will never be selected again.
func (e *Elevator) LiftHighestActiveToTop() {
	e.LiftHighestActive(e.maxLevel)
}

// LiftActiveOn moves the node returned by ActiveOn(level) to newLevel.
func (e *Elevator) LiftActiveOn(level, newLevel int) {
	if n, ok := e.ActiveOn(level); ok {
		e.lift(n, newLevel)
	}
}

// LiftActiveToTop moves the node returned by ActiveOn(level) to MaxLevel().
func (e *Elevator) LiftActiveToTop(level int) {
	e.LiftActiveOn(level, e.maxLevel)
}

// LiftToTop is the gap heuristic. It must be called once level holds no
// node at all: every node above level is then cut off from the terminal,
// so it is moved to MaxLevel() and deactivated.
func (e *Elevator) LiftToTop(level int) {
	top := e.occupied
	if top >= e.maxLevel {
		top = e.maxLevel - 1
	}
	for l := level + 1; l <= top; l++ {
		e.dropList(e.activeHead[l])
		e.dropList(e.idleHead[l])
		e.activeHead[l] = none
		e.idleHead[l] = none
		e.count[l] = 0
	}
	if e.occupied > level {
		e.occupied = level
	}
	if e.highest > level {
		e.highest = level
	}
}

// EmptyLevel reports that no node, active or not, resides on level.
func (e *Elevator) EmptyLevel(level int) bool {
	if level < 0 || level >= e.maxLevel {
		return false
	}
	return e.count[level] == 0
}

// DirtyTopButOne parks an inactive node on MaxLevel()-1 without entering it
// into that level's lists or count. A parked node is never selected or
// lifted by the gap heuristic and keeps its level until the next InitStart.
func (e *Elevator) DirtyTopButOne(n int) {
	e.unlink(n)
	e.active[n] = false
	e.level[n] = e.maxLevel - 1
}

// =============================================================================
// List bookkeeping
// =============================================================================

func (e *Elevator) lift(n, newLevel int) {
	e.unlink(n)
	e.place(n, newLevel)
}

func (e *Elevator) place(n, l int) {
	if l >= e.maxLevel {
		e.level[n] = e.maxLevel
		return
	}
	e.level[n] = l
	e.link(n)
}

func (e *Elevator) head(l int, active bool) *int {
	if active {
		return &e.activeHead[l]
	}
	return &e.idleHead[l]
}

func (e *Elevator) link(n int) {
	l := e.level[n]
	if l >= e.maxLevel {
		return
	}
	h := e.head(l, e.active[n])
	e.prev[n] = none
	e.next[n] = *h
	if *h != none {
		e.prev[*h] = n
	}
	*h = n
	e.listed[n] = true
	e.count[l]++

	if l > e.occupied {
		e.occupied = l
	}
	if e.active[n] && l > e.highest {
		e.highest = l
	}
}

func (e *Elevator) unlink(n int) {
	if !e.listed[n] {
		return
	}
	l := e.level[n]
	if e.prev[n] != none {
		e.next[e.prev[n]] = e.next[n]
	} else {
		*e.head(l, e.active[n]) = e.next[n]
	}
	if e.next[n] != none {
		e.prev[e.next[n]] = e.prev[n]
	}
	e.next[n] = none
	e.prev[n] = none
	e.listed[n] = false
	e.count[l]--
}

func (e *Elevator) dropList(n int) {
	for n != none {
		nx := e.next[n]
		e.level[n] = e.maxLevel
		e.active[n] = false
		e.listed[n] = false
		e.next[n] = none
		e.prev[n] = none
		n = nx
	}
}

func (e *Elevator) settleHighest() {
	for e.highest >= 0 && e.activeHead[e.highest] == none {
		e.highest--
	}
}
