package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository interface {
	Create(ctx context.Context, board *model.Board) error
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Board, error)
	ListPublic(ctx context.Context, page, limit int) ([]model.Board, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]model.Board, int64, error)
	ListVisibleTo(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Board, int64, error)
	SetProgress(ctx context.Context, id uuid.UUID, progress float64) error

	CreateItem(ctx context.Context, item *model.BoardItem) error
	UpdateItem(ctx context.Context, item *model.BoardItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	FindItem(ctx context.Context, boardID, itemID uuid.UUID) (*model.BoardItem, error)
	ListItems(ctx context.Context, boardID uuid.UUID) ([]model.BoardItem, error)

	CreateAction(ctx context.Context, action *model.BoardAction) error
	UpdateAction(ctx context.Context, action *model.BoardAction) error
	DeleteAction(ctx context.Context, id uuid.UUID) error
	FindAction(ctx context.Context, boardID, actionID uuid.UUID) (*model.BoardAction, error)
	ListActions(ctx context.Context, boardID uuid.UUID) ([]model.BoardAction, error)

	CreateCell(ctx context.Context, cell *model.BoardCell) error
	UpdateCell(ctx context.Context, cell *model.BoardCell) error
	DeleteCellsFor(ctx context.Context, itemIDs, actionIDs []uuid.UUID) error
	FindCell(ctx context.Context, boardID, cellID uuid.UUID) (*model.BoardCell, error)
	ListCells(ctx context.Context, boardID uuid.UUID) ([]model.BoardCell, error)

	UpsertGrant(ctx context.Context, grant *model.BoardGrant) error
	FindGrant(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardGrant, error)
	ListGrants(ctx context.Context, boardID uuid.UUID) ([]model.BoardGrant, error)
	DeleteGrant(ctx context.Context, boardID, userID uuid.UUID) error
}

type boardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) Create(ctx context.Context, board *model.Board) error {
	return GetDB(ctx, r.db).Create(board).Error
}

func (r *boardRepository) Update(ctx context.Context, board *model.Board) error {
	return GetDB(ctx, r.db).Save(board).Error
}

// Delete removes the board with its items, actions, cells and grants.
func (r *boardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)

	itemIDs, err := r.itemIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(itemIDs) > 0 {
		if err := db.Where("item_id IN ?", itemIDs).Delete(&model.BoardCell{}).Error; err != nil {
			return err
		}
	}
	if err := db.Where("board_id = ?", id).Delete(&model.BoardItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("board_id = ?", id).Delete(&model.BoardAction{}).Error; err != nil {
		return err
	}
	if err := db.Where("board_id = ?", id).Delete(&model.BoardGrant{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Board{}).Error
}

func (r *boardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := GetDB(ctx, r.db).Preload("Grants").First(&board, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Grants").
		Preload("CreatedBy").
		First(&board, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) ListPublic(ctx context.Context, page, limit int) ([]model.Board, int64, error) {
	return r.list(ctx, GetDB(ctx, r.db).Model(&model.Board{}).Where("public = ?", true), page, limit)
}

func (r *boardRepository) ListAll(ctx context.Context, page, limit int) ([]model.Board, int64, error) {
	return r.list(ctx, GetDB(ctx, r.db).Model(&model.Board{}), page, limit)
}

// ListVisibleTo returns public boards plus boards the user created or holds
// a grant for.
func (r *boardRepository) ListVisibleTo(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Board, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.Board{}).
		Where("public = ? OR created_by_id = ? OR id IN (?)",
			true, userID,
			GetDB(ctx, r.db).Model(&model.BoardGrant{}).Select("board_id").Where("user_id = ?", userID),
		)
	return r.list(ctx, db, page, limit)
}

func (r *boardRepository) list(ctx context.Context, db *gorm.DB, page, limit int) ([]model.Board, int64, error) {
	var boards []model.Board
	var total int64

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&boards).Error; err != nil {
		return nil, 0, err
	}

	return boards, total, nil
}

func (r *boardRepository) SetProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	return GetDB(ctx, r.db).Model(&model.Board{}).Where("id = ?", id).Update("progress", progress).Error
}

func (r *boardRepository) itemIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.BoardItem{}).Where("board_id = ?", boardID).Pluck("id", &ids).Error
	return ids, err
}

func (r *boardRepository) CreateItem(ctx context.Context, item *model.BoardItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *boardRepository) UpdateItem(ctx context.Context, item *model.BoardItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

// DeleteItem removes the item together with its cells. Cells carry no board
// id, so once the item row is gone they would be unreachable by board scans.
func (r *boardRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("item_id = ?", id).Delete(&model.BoardCell{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.BoardItem{}).Error
}

func (r *boardRepository) FindItem(ctx context.Context, boardID, itemID uuid.UUID) (*model.BoardItem, error) {
	var item model.BoardItem
	if err := GetDB(ctx, r.db).
		Where("id = ? AND board_id = ?", itemID, boardID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *boardRepository) ListItems(ctx context.Context, boardID uuid.UUID) ([]model.BoardItem, error) {
	var items []model.BoardItem
	err := GetDB(ctx, r.db).Where("board_id = ?", boardID).Order("position").Find(&items).Error
	return items, err
}

func (r *boardRepository) CreateAction(ctx context.Context, action *model.BoardAction) error {
	return GetDB(ctx, r.db).Create(action).Error
}

func (r *boardRepository) UpdateAction(ctx context.Context, action *model.BoardAction) error {
	return GetDB(ctx, r.db).Save(action).Error
}

// DeleteAction removes the action together with its cells.
func (r *boardRepository) DeleteAction(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("action_id = ?", id).Delete(&model.BoardCell{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.BoardAction{}).Error
}

func (r *boardRepository) FindAction(ctx context.Context, boardID, actionID uuid.UUID) (*model.BoardAction, error) {
	var action model.BoardAction
	if err := GetDB(ctx, r.db).
		Where("id = ? AND board_id = ?", actionID, boardID).
		First(&action).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *boardRepository) ListActions(ctx context.Context, boardID uuid.UUID) ([]model.BoardAction, error) {
	var actions []model.BoardAction
	err := GetDB(ctx, r.db).Where("board_id = ?", boardID).Order("position").Find(&actions).Error
	return actions, err
}

func (r *boardRepository) CreateCell(ctx context.Context, cell *model.BoardCell) error {
	return GetDB(ctx, r.db).Create(cell).Error
}

func (r *boardRepository) UpdateCell(ctx context.Context, cell *model.BoardCell) error {
	return GetDB(ctx, r.db).Save(cell).Error
}

// DeleteCellsFor removes cells referencing any of the given items or actions.
func (r *boardRepository) DeleteCellsFor(ctx context.Context, itemIDs, actionIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if len(itemIDs) > 0 {
		if err := db.Where("item_id IN ?", itemIDs).Delete(&model.BoardCell{}).Error; err != nil {
			return err
		}
	}
	if len(actionIDs) > 0 {
		if err := db.Where("action_id IN ?", actionIDs).Delete(&model.BoardCell{}).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindCell resolves a cell through its item so callers cannot reach cells of
// another board.
func (r *boardRepository) FindCell(ctx context.Context, boardID, cellID uuid.UUID) (*model.BoardCell, error) {
	var cell model.BoardCell
	if err := GetDB(ctx, r.db).
		Joins("JOIN board_items ON board_items.id = board_cells.item_id").
		Where("board_cells.id = ? AND board_items.board_id = ?", cellID, boardID).
		First(&cell).Error; err != nil {
		return nil, err
	}
	return &cell, nil
}

func (r *boardRepository) ListCells(ctx context.Context, boardID uuid.UUID) ([]model.BoardCell, error) {
	var cells []model.BoardCell
	err := GetDB(ctx, r.db).
		Joins("JOIN board_items ON board_items.id = board_cells.item_id").
		Where("board_items.board_id = ?", boardID).
		Find(&cells).Error
	return cells, err
}

// UpsertGrant keeps at most one grant per (board, user): re-granting updates
// the existing row.
func (r *boardRepository) UpsertGrant(ctx context.Context, grant *model.BoardGrant) error {
	db := GetDB(ctx, r.db)

	var existing model.BoardGrant
	err := db.Where("board_id = ? AND user_id = ?", grant.BoardID, grant.UserID).First(&existing).Error
	if err == nil {
		existing.CanEdit = grant.CanEdit
		if saveErr := db.Save(&existing).Error; saveErr != nil {
			return saveErr
		}
		*grant = existing
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(grant).Error
}

func (r *boardRepository) FindGrant(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardGrant, error) {
	var grant model.BoardGrant
	if err := GetDB(ctx, r.db).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *boardRepository) ListGrants(ctx context.Context, boardID uuid.UUID) ([]model.BoardGrant, error) {
	var grants []model.BoardGrant
	err := GetDB(ctx, r.db).Preload("User").Where("board_id = ?", boardID).Find(&grants).Error
	return grants, err
}

func (r *boardRepository) DeleteGrant(ctx context.Context, boardID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&model.BoardGrant{}).Error
}
