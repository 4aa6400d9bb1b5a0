package service

import (
	"context"
	"testing"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBoardService(db *gorm.DB) BoardService {
	return NewBoardService(
		repository.NewBoardRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
}

func createGridBoard(t *testing.T, svc BoardService, actorID string, items, actions []string) BoardDetailResponse {
	t.Helper()

	board, err := svc.CreateBoard(context.Background(), actorID, CreateBoardRequest{
		Title:   "Obra 12",
		Items:   items,
		Actions: actions,
	})
	require.NoError(t, err)
	return board
}

func boolPtr(b bool) *bool { return &b }

func TestCreateBoard(t *testing.T) {
	db := newTestDB(t)
	svc := newBoardService(db)
	ctx := context.Background()
	creator := seedUser(t, db, model.RoleRegular)

	t.Run("builds the full grid", func(t *testing.T) {
		board := createGridBoard(t, svc, creator.ID.String(), []string{"sala", "cozinha"}, []string{"pintura", "piso"})

		assert.Len(t, board.Items, 2)
		assert.Len(t, board.Actions, 2)
		assert.Len(t, board.Cells, 4)
		assert.Equal(t, 0.0, board.Progress)
		assert.True(t, board.Public)
		for _, cell := range board.Cells {
			assert.True(t, cell.Active)
			assert.False(t, cell.Done)
		}
	})

	t.Run("private flag survives creation", func(t *testing.T) {
		board, err := svc.CreateBoard(ctx, creator.ID.String(), CreateBoardRequest{Title: "privado", Public: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, board.Public)

		var stored model.Board
		require.NoError(t, db.First(&stored, "id = ?", board.ID).Error)
		assert.False(t, stored.Public)
	})

	t.Run("anonymous cannot create", func(t *testing.T) {
		_, err := svc.CreateBoard(ctx, "", CreateBoardRequest{Title: "x"})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})
}

func TestSetCellProgress(t *testing.T) {
	db := newTestDB(t)
	svc := newBoardService(db)
	ctx := context.Background()
	creator := seedUser(t, db, model.RoleRegular)
	actorID := creator.ID.String()

	board := createGridBoard(t, svc, actorID, []string{"a", "b"}, []string{"x", "y"})

	t.Run("done cell moves the ratio", func(t *testing.T) {
		cell, err := svc.SetCell(ctx, actorID, board.ID, board.Cells[0].ID, CellUpdateRequest{Done: boolPtr(true)})
		require.NoError(t, err)
		assert.True(t, cell.Done)
		require.NotNil(t, cell.CompletedBy)
		assert.Equal(t, actorID, *cell.CompletedBy)
		assert.NotNil(t, cell.CompletedAt)

		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, detail.Progress, 1e-9)
		assert.NotNil(t, detail.StartedAt)
		assert.Nil(t, detail.CompletedAt)
	})

	t.Run("inactive cells leave the ratio", func(t *testing.T) {
		_, err := svc.SetCell(ctx, actorID, board.ID, board.Cells[1].ID, CellUpdateRequest{Active: boolPtr(false)})
		require.NoError(t, err)

		// 1 done out of 3 active
		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1.0/3.0, detail.Progress, 1e-9)
	})

	t.Run("all active done completes the board", func(t *testing.T) {
		for _, id := range []string{board.Cells[2].ID, board.Cells[3].ID} {
			_, err := svc.SetCell(ctx, actorID, board.ID, id, CellUpdateRequest{Done: boolPtr(true)})
			require.NoError(t, err)
		}

		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, detail.Progress)
		assert.NotNil(t, detail.CompletedAt)
	})

	t.Run("unchecking reopens the board and clears the stamp", func(t *testing.T) {
		cell, err := svc.SetCell(ctx, actorID, board.ID, board.Cells[2].ID, CellUpdateRequest{Done: boolPtr(false)})
		require.NoError(t, err)
		assert.Nil(t, cell.CompletedAt)
		assert.Nil(t, cell.CompletedBy)

		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.Nil(t, detail.CompletedAt)
		assert.NotNil(t, detail.StartedAt)
	})
}

func TestProgressWithoutActiveCells(t *testing.T) {
	db := newTestDB(t)
	svc := newBoardService(db)
	ctx := context.Background()
	creator := seedUser(t, db, model.RoleRegular)
	actorID := creator.ID.String()

	board := createGridBoard(t, svc, actorID, []string{"a"}, []string{"x"})

	_, err := svc.SetCell(ctx, actorID, board.ID, board.Cells[0].ID, CellUpdateRequest{Active: boolPtr(false)})
	require.NoError(t, err)

	detail, err := svc.GetBoard(ctx, actorID, board.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, detail.Progress)
	assert.Nil(t, detail.CompletedAt)
}

func TestGridReconciliation(t *testing.T) {
	db := newTestDB(t)
	svc := newBoardService(db)
	ctx := context.Background()
	creator := seedUser(t, db, model.RoleRegular)
	actorID := creator.ID.String()

	board := createGridBoard(t, svc, actorID, []string{"a", "b"}, []string{"x", "y"})

	_, err := svc.SetCell(ctx, actorID, board.ID, board.Cells[0].ID, CellUpdateRequest{Done: boolPtr(true)})
	require.NoError(t, err)

	t.Run("adding an item grows the grid and keeps cell state", func(t *testing.T) {
		_, err := svc.AddItem(ctx, actorID, board.ID, BoardEntryRequest{Name: "c"})
		require.NoError(t, err)

		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Cells, 6)

		var done int
		for _, cell := range detail.Cells {
			if cell.Done {
				done++
			}
		}
		assert.Equal(t, 1, done)
		assert.InDelta(t, 1.0/6.0, detail.Progress, 1e-9)
	})

	t.Run("removing an action drops its cells", func(t *testing.T) {
		require.NoError(t, svc.RemoveAction(ctx, actorID, board.ID, board.Actions[0].ID))

		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Cells, 3)
		for _, cell := range detail.Cells {
			assert.NotEqual(t, board.Actions[0].ID, cell.ActionID)
		}

		var dangling int64
		require.NoError(t, db.Model(&model.BoardCell{}).Where("action_id = ?", board.Actions[0].ID).Count(&dangling).Error)
		assert.Zero(t, dangling)
	})

	t.Run("removing an item drops its cells", func(t *testing.T) {
		require.NoError(t, svc.RemoveItem(ctx, actorID, board.ID, board.Items[0].ID))

		detail, err := svc.GetBoard(ctx, actorID, board.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Cells, 2)

		// No row may survive pointing at the deleted item.
		var dangling int64
		require.NoError(t, db.Model(&model.BoardCell{}).Where("item_id = ?", board.Items[0].ID).Count(&dangling).Error)
		assert.Zero(t, dangling)
	})
}

func TestBoardAccess(t *testing.T) {
	db := newTestDB(t)
	svc := newBoardService(db)
	ctx := context.Background()
	creator := seedUser(t, db, model.RoleRegular)
	stranger := seedUser(t, db, model.RoleRegular)
	admin := seedUser(t, db, model.RoleAdmin)

	private, err := svc.CreateBoard(ctx, creator.ID.String(), CreateBoardRequest{
		Title:   "restrito",
		Public:  boolPtr(false),
		Items:   []string{"a"},
		Actions: []string{"x"},
	})
	require.NoError(t, err)

	t.Run("anonymous reads only public boards", func(t *testing.T) {
		public := createGridBoard(t, svc, creator.ID.String(), []string{"a"}, []string{"x"})

		got, err := svc.GetBoard(ctx, "", public.ID)
		require.NoError(t, err)
		assert.False(t, got.CanEdit)

		_, err = svc.GetBoard(ctx, "", private.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("stranger cannot touch a private board", func(t *testing.T) {
		_, err := svc.GetBoard(ctx, stranger.ID.String(), private.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

		_, err = svc.SetCell(ctx, stranger.ID.String(), private.ID, private.Cells[0].ID, CellUpdateRequest{Done: boolPtr(true)})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("edit grant allows mutation but not visibility or grants", func(t *testing.T) {
		_, err := svc.Grant(ctx, creator.ID.String(), private.ID, GrantRequest{UserID: stranger.ID.String(), CanEdit: true})
		require.NoError(t, err)

		_, err = svc.SetCell(ctx, stranger.ID.String(), private.ID, private.Cells[0].ID, CellUpdateRequest{Done: boolPtr(true)})
		require.NoError(t, err)

		_, err = svc.UpdateBoard(ctx, stranger.ID.String(), private.ID, UpdateBoardRequest{Public: boolPtr(true)})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

		third := seedUser(t, db, model.RoleRegular)
		_, err = svc.Grant(ctx, stranger.ID.String(), private.ID, GrantRequest{UserID: third.ID.String(), CanEdit: false})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("granting twice upserts instead of duplicating", func(t *testing.T) {
		_, err := svc.Grant(ctx, creator.ID.String(), private.ID, GrantRequest{UserID: stranger.ID.String(), CanEdit: false})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&model.BoardGrant{}).
			Where("board_id = ? AND user_id = ?", private.ID, stranger.ID).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)

		// Downgraded to read-only
		_, err = svc.SetCell(ctx, stranger.ID.String(), private.ID, private.Cells[0].ID, CellUpdateRequest{Done: boolPtr(false)})
		assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))
	})

	t.Run("revoking a missing grant is not found", func(t *testing.T) {
		err := svc.Revoke(ctx, creator.ID.String(), private.ID, admin.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("admin sees and deletes everything", func(t *testing.T) {
		_, err := svc.GetBoard(ctx, admin.ID.String(), private.ID)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteBoard(ctx, admin.ID.String(), private.ID))
		_, err = svc.GetBoard(ctx, admin.ID.String(), private.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestListBoardsVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := newBoardService(db)
	ctx := context.Background()
	creator := seedUser(t, db, model.RoleRegular)
	other := seedUser(t, db, model.RoleRegular)

	createGridBoard(t, svc, creator.ID.String(), nil, nil) // public
	privateBoard, err := svc.CreateBoard(ctx, creator.ID.String(), CreateBoardRequest{Title: "fechado", Public: boolPtr(false)})
	require.NoError(t, err)

	anon, total, err := svc.ListBoards(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, anon, 1)

	mine, total, err := svc.ListBoards(ctx, creator.ID.String(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)

	others, total, err := svc.ListBoards(ctx, other.ID.String(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, others, 1)
	assert.NotEqual(t, privateBoard.ID, others[0].ID)
}
