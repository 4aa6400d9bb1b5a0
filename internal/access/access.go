// Package access decides whether an actor may read or mutate a board.
// The predicates are pure: they operate on already-loaded rows (the board
// with its grants) and an optional actor, so the rules can be tested
// without a database.
package access

import "backend/internal/model"

// CanRead reports whether actor may view the board. A nil actor is an
// anonymous caller and only sees public boards. Holding any grant, even a
// read-only one, is enough to view a private board.
func CanRead(board *model.Board, actor *model.User) bool {
	if board.Public {
		return true
	}
	if actor == nil {
		return false
	}
	if actor.IsAdmin() || board.CreatedByID == actor.ID {
		return true
	}
	for _, g := range board.Grants {
		if g.UserID == actor.ID {
			return true
		}
	}
	return false
}

// CanEdit reports whether actor may mutate the board's content. Public
// visibility never implies edit rights, and an anonymous actor can never
// edit.
func CanEdit(board *model.Board, actor *model.User) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() || board.CreatedByID == actor.ID {
		return true
	}
	for _, g := range board.Grants {
		if g.UserID == actor.ID && g.CanEdit {
			return true
		}
	}
	return false
}

// CanManageGrants reports whether actor may grant or revoke access on the
// board. Only the creator and admins qualify; an edit grant does not.
func CanManageGrants(board *model.Board, actor *model.User) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || board.CreatedByID == actor.ID
}

// CanDelete mirrors CanManageGrants: only the creator or an admin may
// remove a board.
func CanDelete(board *model.Board, actor *model.User) bool {
	return CanManageGrants(board, actor)
}
