package table

import (
	"errors"
	"fmt"
)

type State int

const (
	AwaitingParentRow State = iota
	WithinGroup
)

func (s State) String() string {
	switch s {
	case AwaitingParentRow:
		return "AwaitingParentRow"
	case WithinGroup:
		return "WithinGroup"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrOrphanRow is returned for a child row that appears before any parent
// row, there is no identity for it to inherit.
var ErrOrphanRow = errors.New("child row without a preceding parent row")

// Identity is what a child row inherits from its parent.
type Identity struct {
	ModuleCode string
	Group      string
}

// Carrier tracks the carry-over relationship between a parent row and the
// child rows that follow it. A row with at least ParentWidth cells is a
// parent whose first two cells are the module code and group, every
// narrower row is a child inheriting them. The state only resets when a
// new parent row is seen.
type Carrier struct {
	ParentWidth int

	state    State
	identity Identity
}

func NewCarrier(parentWidth int) *Carrier {
	return &Carrier{ParentWidth: parentWidth}
}

func (c *Carrier) State() State {
	return c.state
}

// Next consumes one row and returns the identity it belongs to.
func (c *Carrier) Next(cells []string) (Identity, error) {
	if len(cells) >= c.ParentWidth {
		c.state = WithinGroup
		c.identity = Identity{ModuleCode: cells[0], Group: cells[1]}
		return c.identity, nil
	}
	if c.state == AwaitingParentRow {
		return Identity{}, ErrOrphanRow
	}
	return c.identity, nil
}
