// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package permissions

import (
	"fmt"
	"strings"
)

// Action is a bitset over the CRUD verbs plus membership management
type Action uint8

const (
	ActionCreate Action = 1 << iota
	ActionRead
	ActionUpdate
	ActionDelete
	// ActionManage covers adding, promoting and removing the members of a context
	ActionManage

	ActionNone Action = 0
	ActionAll         = ActionCreate | ActionRead | ActionUpdate | ActionDelete | ActionManage
)

var actionNames = []struct {
	a    Action
	name string
}{
	{ActionCreate, "create"},
	{ActionRead, "read"},
	{ActionUpdate, "update"},
	{ActionDelete, "delete"},
	{ActionManage, "manage"},
}

// Has reports whether every bit of want is set
func (a Action) Has(want Action) bool {
	return want != ActionNone && a&want == want
}

func (a Action) String() string {
	names := make([]string, 0, len(actionNames))

	for _, n := range actionNames {
		if a&n.a != 0 {
			names = append(names, n.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "|")
}

func ParseAction(s string) (Action, error) {
	for _, n := range actionNames {
		if n.name == s {
			return n.a, nil
		}
	}

	return ActionNone, fmt.Errorf("unknown action %q", s)
}
