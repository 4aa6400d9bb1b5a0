package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/access"
	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateBoardRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Public      *bool    `json:"public"`
	Items       []string `json:"items"`
	Actions     []string `json:"actions"`
}

type UpdateBoardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Public      *bool   `json:"public"`
}

type BoardEntryRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameEntryRequest struct {
	Name  *string `json:"name"`
	Order *int    `json:"order"`
}

type CellUpdateRequest struct {
	Done   *bool `json:"done"`
	Active *bool `json:"active"`
}

type GrantRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	CanEdit bool   `json:"can_edit"`
}

type BoardEntryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type CellResponse struct {
	ID          string  `json:"id"`
	ItemID      string  `json:"item_id"`
	ActionID    string  `json:"action_id"`
	Done        bool    `json:"done"`
	Active      bool    `json:"active"`
	CompletedAt *string `json:"completed_at"`
	CompletedBy *string `json:"completed_by"`
}

type GrantResponse struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	CanEdit  bool   `json:"can_edit"`
}

type BoardResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CreatedBy   string  `json:"created_by"`
	Progress    float64 `json:"progress"`
	Public      bool    `json:"public"`
	StartedAt   *string `json:"started_at"`
	CompletedAt *string `json:"completed_at"`
	CreatedAt   string  `json:"created_at"`
	CanEdit     bool    `json:"can_edit"`
}

type BoardDetailResponse struct {
	BoardResponse
	Items   []BoardEntryResponse `json:"items"`
	Actions []BoardEntryResponse `json:"actions"`
	Cells   []CellResponse       `json:"cells"`
	Grants  []GrantResponse      `json:"grants,omitempty"`
}

// BoardService manages checklist boards: an items x actions grid whose cells
// drive the board's completion ratio. Every read and mutation is gated by the
// access rules; the caller identity may be empty for anonymous access.
type BoardService interface {
	CreateBoard(ctx context.Context, actorID string, req CreateBoardRequest) (BoardDetailResponse, error)
	GetBoard(ctx context.Context, actorID, id string) (BoardDetailResponse, error)
	ListBoards(ctx context.Context, actorID string, page, limit int) ([]BoardResponse, int64, error)
	UpdateBoard(ctx context.Context, actorID, id string, req UpdateBoardRequest) (BoardResponse, error)
	DeleteBoard(ctx context.Context, actorID, id string) error

	AddItem(ctx context.Context, actorID, boardID string, req BoardEntryRequest) (BoardEntryResponse, error)
	UpdateItem(ctx context.Context, actorID, boardID, itemID string, req RenameEntryRequest) (BoardEntryResponse, error)
	RemoveItem(ctx context.Context, actorID, boardID, itemID string) error

	AddAction(ctx context.Context, actorID, boardID string, req BoardEntryRequest) (BoardEntryResponse, error)
	UpdateAction(ctx context.Context, actorID, boardID, actionID string, req RenameEntryRequest) (BoardEntryResponse, error)
	RemoveAction(ctx context.Context, actorID, boardID, actionID string) error

	SetCell(ctx context.Context, actorID, boardID, cellID string, req CellUpdateRequest) (CellResponse, error)

	Grant(ctx context.Context, actorID, boardID string, req GrantRequest) (GrantResponse, error)
	Revoke(ctx context.Context, actorID, boardID, userID string) error
}

type boardService struct {
	boardRepo repository.BoardRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewBoardService(
	boardRepo repository.BoardRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BoardService {
	return &boardService{
		boardRepo: boardRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

// audit records a board change; failures are ignored so bookkeeping never
// breaks the main operation.
func (s *boardService) audit(ctx context.Context, actor *model.User, action, recordID string, payload map[string]interface{}) {
	var actorID *uuid.UUID
	if actor != nil {
		id := actor.ID
		actorID = &id
	}
	details, _ := json.Marshal(payload)
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:   actorID,
		Action:   action,
		Entity:   "boards",
		RecordID: recordID,
		Details:  string(details),
	})
}

// loadActor resolves the caller. An empty or unknown id is an anonymous
// caller, which the access rules treat as public-only.
func (s *boardService) loadActor(ctx context.Context, actorID string) *model.User {
	if actorID == "" {
		return nil
	}
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

// computeProgress derives the completion ratio from cells. Inactive cells do
// not participate; a board with no active cell has ratio 0.0, not NaN.
func computeProgress(cells []model.BoardCell) float64 {
	var active, done int
	for _, c := range cells {
		if !c.Active {
			continue
		}
		active++
		if c.Done {
			done++
		}
	}
	if active == 0 {
		return 0.0
	}
	return float64(done) / float64(active)
}

func optTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toBoardResponse(b *model.Board, actor *model.User) BoardResponse {
	return BoardResponse{
		ID:          b.ID.String(),
		Title:       b.Title,
		Description: b.Description,
		CreatedBy:   b.CreatedByID.String(),
		Progress:    b.Progress,
		Public:      b.Public,
		StartedAt:   optTime(b.StartedAt),
		CompletedAt: optTime(b.CompletedAt),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		CanEdit:     access.CanEdit(b, actor),
	}
}

func toEntryResponse(id uuid.UUID, name string, order int) BoardEntryResponse {
	return BoardEntryResponse{ID: id.String(), Name: name, Order: order}
}

func toCellResponse(c *model.BoardCell) CellResponse {
	res := CellResponse{
		ID:          c.ID.String(),
		ItemID:      c.ItemID.String(),
		ActionID:    c.ActionID.String(),
		Done:        c.Done,
		Active:      c.Active,
		CompletedAt: optTime(c.CompletedAt),
	}
	if c.CompletedBy != nil {
		id := c.CompletedBy.String()
		res.CompletedBy = &id
	}
	return res
}

func (s *boardService) detail(ctx context.Context, board *model.Board, actor *model.User) (BoardDetailResponse, error) {
	cells, err := s.boardRepo.ListCells(ctx, board.ID)
	if err != nil {
		return BoardDetailResponse{}, apperr.Internal("failed to load cells", err)
	}

	res := BoardDetailResponse{
		BoardResponse: toBoardResponse(board, actor),
		Items:         make([]BoardEntryResponse, 0, len(board.Items)),
		Actions:       make([]BoardEntryResponse, 0, len(board.Actions)),
		Cells:         make([]CellResponse, 0, len(cells)),
	}
	for _, item := range board.Items {
		res.Items = append(res.Items, toEntryResponse(item.ID, item.Name, item.Order))
	}
	for _, action := range board.Actions {
		res.Actions = append(res.Actions, toEntryResponse(action.ID, action.Name, action.Order))
	}
	for i := range cells {
		res.Cells = append(res.Cells, toCellResponse(&cells[i]))
	}

	if access.CanManageGrants(board, actor) {
		grants, grantErr := s.boardRepo.ListGrants(ctx, board.ID)
		if grantErr != nil {
			return BoardDetailResponse{}, apperr.Internal("failed to load grants", grantErr)
		}
		for _, g := range grants {
			gr := GrantResponse{UserID: g.UserID.String(), CanEdit: g.CanEdit}
			if g.User != nil {
				gr.UserName = g.User.Name
			}
			res.Grants = append(res.Grants, gr)
		}
	}

	return res, nil
}

func (s *boardService) CreateBoard(ctx context.Context, actorID string, req CreateBoardRequest) (BoardDetailResponse, error) {
	actor := s.loadActor(ctx, actorID)
	if actor == nil {
		return BoardDetailResponse{}, apperr.PermissionDenied("authentication required")
	}

	public := true
	if req.Public != nil {
		public = *req.Public
	}

	board := model.Board{
		Title:       req.Title,
		Description: req.Description,
		CreatedByID: actor.ID,
		Public:      public,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.boardRepo.Create(txCtx, &board); createErr != nil {
			return apperr.Internal("failed to create board", createErr)
		}

		for i, name := range req.Items {
			item := model.BoardItem{BoardID: board.ID, Name: name, Order: i}
			if itemErr := s.boardRepo.CreateItem(txCtx, &item); itemErr != nil {
				return apperr.Internal("failed to create item", itemErr)
			}
			board.Items = append(board.Items, item)
		}
		for i, name := range req.Actions {
			action := model.BoardAction{BoardID: board.ID, Name: name, Order: i}
			if actionErr := s.boardRepo.CreateAction(txCtx, &action); actionErr != nil {
				return apperr.Internal("failed to create action", actionErr)
			}
			board.Actions = append(board.Actions, action)
		}

		// Full grid: one cell per (item, action) pair, active and not done.
		for _, item := range board.Items {
			for _, action := range board.Actions {
				cell := model.BoardCell{ItemID: item.ID, ActionID: action.ID, Active: true}
				if cellErr := s.boardRepo.CreateCell(txCtx, &cell); cellErr != nil {
					return apperr.Internal("failed to create cell", cellErr)
				}
			}
		}

		return nil
	})
	if err != nil {
		return BoardDetailResponse{}, err
	}

	return s.detail(ctx, &board, actor)
}

func (s *boardService) GetBoard(ctx context.Context, actorID, id string) (BoardDetailResponse, error) {
	boardID, err := uuid.Parse(id)
	if err != nil {
		return BoardDetailResponse{}, apperr.InvalidInput("invalid board id")
	}

	actor := s.loadActor(ctx, actorID)

	board, err := s.boardRepo.FindByIDFull(ctx, boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BoardDetailResponse{}, apperr.NotFound("board not found")
		}
		return BoardDetailResponse{}, apperr.Internal("failed to load board", err)
	}

	if !access.CanRead(board, actor) {
		return BoardDetailResponse{}, apperr.PermissionDenied("no access to this board")
	}

	return s.detail(ctx, board, actor)
}

func (s *boardService) ListBoards(ctx context.Context, actorID string, page, limit int) ([]BoardResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	actor := s.loadActor(ctx, actorID)

	var boards []model.Board
	var total int64
	var err error

	switch {
	case actor == nil:
		boards, total, err = s.boardRepo.ListPublic(ctx, page, limit)
	case actor.IsAdmin():
		boards, total, err = s.boardRepo.ListAll(ctx, page, limit)
	default:
		boards, total, err = s.boardRepo.ListVisibleTo(ctx, actor.ID, page, limit)
	}
	if err != nil {
		return nil, 0, apperr.Internal("failed to list boards", err)
	}

	res := make([]BoardResponse, 0, len(boards))
	for i := range boards {
		res = append(res, toBoardResponse(&boards[i], actor))
	}
	return res, total, nil
}

func (s *boardService) UpdateBoard(ctx context.Context, actorID, id string, req UpdateBoardRequest) (BoardResponse, error) {
	boardID, err := uuid.Parse(id)
	if err != nil {
		return BoardResponse{}, apperr.InvalidInput("invalid board id")
	}

	actor := s.loadActor(ctx, actorID)

	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BoardResponse{}, apperr.NotFound("board not found")
		}
		return BoardResponse{}, apperr.Internal("failed to load board", err)
	}

	if !access.CanEdit(board, actor) {
		return BoardResponse{}, apperr.PermissionDenied("no edit access to this board")
	}

	if req.Title != nil {
		if *req.Title == "" {
			return BoardResponse{}, apperr.InvalidInput("title cannot be empty")
		}
		board.Title = *req.Title
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Public != nil {
		// Flipping visibility needs ownership, not just an edit grant.
		if !access.CanManageGrants(board, actor) {
			return BoardResponse{}, apperr.PermissionDenied("only the creator or an admin can change visibility")
		}
		board.Public = *req.Public
	}

	if err := s.boardRepo.Update(ctx, board); err != nil {
		return BoardResponse{}, apperr.Internal("failed to update board", err)
	}

	return toBoardResponse(board, actor), nil
}

func (s *boardService) DeleteBoard(ctx context.Context, actorID, id string) error {
	boardID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid board id")
	}

	actor := s.loadActor(ctx, actorID)

	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("board not found")
		}
		return apperr.Internal("failed to load board", err)
	}

	if !access.CanDelete(board, actor) {
		return apperr.PermissionDenied("only the creator or an admin can delete a board")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.boardRepo.Delete(txCtx, boardID); delErr != nil {
			return apperr.Internal("failed to delete board", delErr)
		}
		return nil
	})
}

// editableBoard loads the board and enforces edit access.
func (s *boardService) editableBoard(ctx context.Context, actorID, id string) (*model.Board, *model.User, error) {
	boardID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, apperr.InvalidInput("invalid board id")
	}

	actor := s.loadActor(ctx, actorID)

	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("board not found")
		}
		return nil, nil, apperr.Internal("failed to load board", err)
	}

	if !access.CanEdit(board, actor) {
		return nil, nil, apperr.PermissionDenied("no edit access to this board")
	}

	return board, actor, nil
}

// reconcileCells restores the full grid after a structural change: a cell is
// created for every (item, action) pair that lacks one, and cells whose item
// or action no longer exists are removed. Existing cells keep their state.
func (s *boardService) reconcileCells(ctx context.Context, boardID uuid.UUID) error {
	items, err := s.boardRepo.ListItems(ctx, boardID)
	if err != nil {
		return err
	}
	actions, err := s.boardRepo.ListActions(ctx, boardID)
	if err != nil {
		return err
	}
	cells, err := s.boardRepo.ListCells(ctx, boardID)
	if err != nil {
		return err
	}

	itemSet := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		itemSet[it.ID] = true
	}
	actionSet := make(map[uuid.UUID]bool, len(actions))
	for _, a := range actions {
		actionSet[a.ID] = true
	}

	type pair struct{ item, action uuid.UUID }
	existing := make(map[pair]bool, len(cells))
	var orphanItems, orphanActions []uuid.UUID
	for _, c := range cells {
		if !itemSet[c.ItemID] {
			orphanItems = append(orphanItems, c.ItemID)
			continue
		}
		if !actionSet[c.ActionID] {
			orphanActions = append(orphanActions, c.ActionID)
			continue
		}
		existing[pair{c.ItemID, c.ActionID}] = true
	}

	if err := s.boardRepo.DeleteCellsFor(ctx, orphanItems, orphanActions); err != nil {
		return err
	}

	for _, it := range items {
		for _, a := range actions {
			if existing[pair{it.ID, a.ID}] {
				continue
			}
			cell := model.BoardCell{ItemID: it.ID, ActionID: a.ID, Active: true}
			if err := s.boardRepo.CreateCell(ctx, &cell); err != nil {
				return err
			}
		}
	}

	return nil
}

// refreshProgress recomputes and stores the board's ratio and completion
// stamps from its current cells.
func (s *boardService) refreshProgress(ctx context.Context, board *model.Board) error {
	cells, err := s.boardRepo.ListCells(ctx, board.ID)
	if err != nil {
		return err
	}

	progress := computeProgress(cells)
	board.Progress = progress

	anyDone := false
	activeCount := 0
	for _, c := range cells {
		if c.Done && c.Active {
			anyDone = true
		}
		if c.Active {
			activeCount++
		}
	}

	now := time.Now().UTC()
	if anyDone && board.StartedAt == nil {
		board.StartedAt = &now
	}
	if activeCount > 0 && progress == 1.0 {
		if board.CompletedAt == nil {
			board.CompletedAt = &now
		}
	} else {
		board.CompletedAt = nil
	}

	return s.boardRepo.Update(ctx, board)
}

func (s *boardService) AddItem(ctx context.Context, actorID, boardID string, req BoardEntryRequest) (BoardEntryResponse, error) {
	board, _, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return BoardEntryResponse{}, err
	}

	var item model.BoardItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		items, listErr := s.boardRepo.ListItems(txCtx, board.ID)
		if listErr != nil {
			return apperr.Internal("failed to list items", listErr)
		}

		order := 0
		for _, existing := range items {
			if existing.Order >= order {
				order = existing.Order + 1
			}
		}

		item = model.BoardItem{BoardID: board.ID, Name: req.Name, Order: order}
		if createErr := s.boardRepo.CreateItem(txCtx, &item); createErr != nil {
			return apperr.Internal("failed to create item", createErr)
		}

		if recErr := s.reconcileCells(txCtx, board.ID); recErr != nil {
			return apperr.Internal("failed to rebuild grid", recErr)
		}
		if progErr := s.refreshProgress(txCtx, board); progErr != nil {
			return apperr.Internal("failed to refresh progress", progErr)
		}
		return nil
	})
	if err != nil {
		return BoardEntryResponse{}, err
	}

	return toEntryResponse(item.ID, item.Name, item.Order), nil
}

func (s *boardService) UpdateItem(ctx context.Context, actorID, boardID, itemID string, req RenameEntryRequest) (BoardEntryResponse, error) {
	board, _, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return BoardEntryResponse{}, err
	}

	id, err := uuid.Parse(itemID)
	if err != nil {
		return BoardEntryResponse{}, apperr.InvalidInput("invalid item id")
	}

	item, err := s.boardRepo.FindItem(ctx, board.ID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BoardEntryResponse{}, apperr.NotFound("item not found")
		}
		return BoardEntryResponse{}, apperr.Internal("failed to load item", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return BoardEntryResponse{}, apperr.InvalidInput("name cannot be empty")
		}
		item.Name = *req.Name
	}
	if req.Order != nil {
		item.Order = *req.Order
	}

	if err := s.boardRepo.UpdateItem(ctx, item); err != nil {
		return BoardEntryResponse{}, apperr.Internal("failed to update item", err)
	}

	return toEntryResponse(item.ID, item.Name, item.Order), nil
}

func (s *boardService) RemoveItem(ctx context.Context, actorID, boardID, itemID string) error {
	board, _, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(itemID)
	if err != nil {
		return apperr.InvalidInput("invalid item id")
	}

	if _, err := s.boardRepo.FindItem(ctx, board.ID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("item not found")
		}
		return apperr.Internal("failed to load item", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.boardRepo.DeleteItem(txCtx, id); delErr != nil {
			return apperr.Internal("failed to delete item", delErr)
		}
		if recErr := s.reconcileCells(txCtx, board.ID); recErr != nil {
			return apperr.Internal("failed to rebuild grid", recErr)
		}
		if progErr := s.refreshProgress(txCtx, board); progErr != nil {
			return apperr.Internal("failed to refresh progress", progErr)
		}
		return nil
	})
}

func (s *boardService) AddAction(ctx context.Context, actorID, boardID string, req BoardEntryRequest) (BoardEntryResponse, error) {
	board, _, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return BoardEntryResponse{}, err
	}

	var action model.BoardAction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		actions, listErr := s.boardRepo.ListActions(txCtx, board.ID)
		if listErr != nil {
			return apperr.Internal("failed to list actions", listErr)
		}

		order := 0
		for _, existing := range actions {
			if existing.Order >= order {
				order = existing.Order + 1
			}
		}

		action = model.BoardAction{BoardID: board.ID, Name: req.Name, Order: order}
		if createErr := s.boardRepo.CreateAction(txCtx, &action); createErr != nil {
			return apperr.Internal("failed to create action", createErr)
		}

		if recErr := s.reconcileCells(txCtx, board.ID); recErr != nil {
			return apperr.Internal("failed to rebuild grid", recErr)
		}
		if progErr := s.refreshProgress(txCtx, board); progErr != nil {
			return apperr.Internal("failed to refresh progress", progErr)
		}
		return nil
	})
	if err != nil {
		return BoardEntryResponse{}, err
	}

	return toEntryResponse(action.ID, action.Name, action.Order), nil
}

func (s *boardService) UpdateAction(ctx context.Context, actorID, boardID, actionID string, req RenameEntryRequest) (BoardEntryResponse, error) {
	board, _, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return BoardEntryResponse{}, err
	}

	id, err := uuid.Parse(actionID)
	if err != nil {
		return BoardEntryResponse{}, apperr.InvalidInput("invalid action id")
	}

	action, err := s.boardRepo.FindAction(ctx, board.ID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BoardEntryResponse{}, apperr.NotFound("action not found")
		}
		return BoardEntryResponse{}, apperr.Internal("failed to load action", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return BoardEntryResponse{}, apperr.InvalidInput("name cannot be empty")
		}
		action.Name = *req.Name
	}
	if req.Order != nil {
		action.Order = *req.Order
	}

	if err := s.boardRepo.UpdateAction(ctx, action); err != nil {
		return BoardEntryResponse{}, apperr.Internal("failed to update action", err)
	}

	return toEntryResponse(action.ID, action.Name, action.Order), nil
}

func (s *boardService) RemoveAction(ctx context.Context, actorID, boardID, actionID string) error {
	board, _, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(actionID)
	if err != nil {
		return apperr.InvalidInput("invalid action id")
	}

	if _, err := s.boardRepo.FindAction(ctx, board.ID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("action not found")
		}
		return apperr.Internal("failed to load action", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.boardRepo.DeleteAction(txCtx, id); delErr != nil {
			return apperr.Internal("failed to delete action", delErr)
		}
		if recErr := s.reconcileCells(txCtx, board.ID); recErr != nil {
			return apperr.Internal("failed to rebuild grid", recErr)
		}
		if progErr := s.refreshProgress(txCtx, board); progErr != nil {
			return apperr.Internal("failed to refresh progress", progErr)
		}
		return nil
	})
}

// SetCell toggles a cell's done or active flag. The done transition stamps
// who completed the cell and when; unchecking clears the stamp. Marking a
// cell inactive hides it from the ratio without erasing its done state.
func (s *boardService) SetCell(ctx context.Context, actorID, boardID, cellID string, req CellUpdateRequest) (CellResponse, error) {
	board, actor, err := s.editableBoard(ctx, actorID, boardID)
	if err != nil {
		return CellResponse{}, err
	}

	id, err := uuid.Parse(cellID)
	if err != nil {
		return CellResponse{}, apperr.InvalidInput("invalid cell id")
	}

	var cell *model.BoardCell
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		cell, findErr = s.boardRepo.FindCell(txCtx, board.ID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("cell not found")
			}
			return apperr.Internal("failed to load cell", findErr)
		}

		if req.Done != nil && *req.Done != cell.Done {
			cell.Done = *req.Done
			if cell.Done {
				now := time.Now().UTC()
				cell.CompletedAt = &now
				cell.CompletedBy = &actor.ID
			} else {
				cell.CompletedAt = nil
				cell.CompletedBy = nil
			}
		}
		if req.Active != nil {
			cell.Active = *req.Active
		}

		if updErr := s.boardRepo.UpdateCell(txCtx, cell); updErr != nil {
			return apperr.Internal("failed to update cell", updErr)
		}

		if progErr := s.refreshProgress(txCtx, board); progErr != nil {
			return apperr.Internal("failed to refresh progress", progErr)
		}
		return nil
	})
	if err != nil {
		return CellResponse{}, err
	}

	s.audit(ctx, actor, model.ActionUpdateBoardCell, cell.ID.String(), map[string]interface{}{
		"board_id": board.ID.String(),
		"done":     cell.Done,
		"active":   cell.Active,
	})

	return toCellResponse(cell), nil
}

func (s *boardService) Grant(ctx context.Context, actorID, boardID string, req GrantRequest) (GrantResponse, error) {
	id, err := uuid.Parse(boardID)
	if err != nil {
		return GrantResponse{}, apperr.InvalidInput("invalid board id")
	}

	actor := s.loadActor(ctx, actorID)

	board, err := s.boardRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GrantResponse{}, apperr.NotFound("board not found")
		}
		return GrantResponse{}, apperr.Internal("failed to load board", err)
	}

	if !access.CanManageGrants(board, actor) {
		return GrantResponse{}, apperr.PermissionDenied("only the creator or an admin can manage access")
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		return GrantResponse{}, apperr.InvalidInput("invalid user id")
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GrantResponse{}, apperr.NotFound("user not found")
		}
		return GrantResponse{}, apperr.Internal("failed to load user", err)
	}

	grant := model.BoardGrant{BoardID: board.ID, UserID: target.ID, CanEdit: req.CanEdit}
	if err := s.boardRepo.UpsertGrant(ctx, &grant); err != nil {
		return GrantResponse{}, apperr.Internal("failed to store grant", err)
	}

	s.audit(ctx, actor, model.ActionGrantBoardAccess, board.ID.String(), map[string]interface{}{
		"user_id":  target.ID.String(),
		"can_edit": grant.CanEdit,
	})

	return GrantResponse{UserID: target.ID.String(), UserName: target.Name, CanEdit: grant.CanEdit}, nil
}

func (s *boardService) Revoke(ctx context.Context, actorID, boardID, userID string) error {
	id, err := uuid.Parse(boardID)
	if err != nil {
		return apperr.InvalidInput("invalid board id")
	}

	actor := s.loadActor(ctx, actorID)

	board, err := s.boardRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("board not found")
		}
		return apperr.Internal("failed to load board", err)
	}

	if !access.CanManageGrants(board, actor) {
		return apperr.PermissionDenied("only the creator or an admin can manage access")
	}

	targetID, err := uuid.Parse(userID)
	if err != nil {
		return apperr.InvalidInput("invalid user id")
	}

	if _, err := s.boardRepo.FindGrant(ctx, board.ID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("grant not found")
		}
		return apperr.Internal("failed to load grant", err)
	}

	return s.boardRepo.DeleteGrant(ctx, board.ID, targetID)
}
