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

func newProjectService(db *gorm.DB) ProjectService {
	return NewProjectService(
		repository.NewProjectRepository(db),
		repository.NewUserRepository(db),
		repository.NewProductRepository(db),
		repository.NewMovementRepository(db),
	)
}

func TestCreateProject(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	ctx := context.Background()
	responsible := seedUser(t, db, model.RoleRegular)

	t.Run("defaults to planejamento and links the responsible", func(t *testing.T) {
		project, err := svc.CreateProject(ctx, CreateProjectRequest{
			Name:          "Reforma Sede",
			StartDate:     "2026-09-01",
			ResponsibleID: responsible.ID.String(),
		})
		require.NoError(t, err)
		assert.Equal(t, model.ProjectPlanning, project.Status)

		collaborators, err := svc.ListCollaborators(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, collaborators, 1)
		assert.Equal(t, responsible.ID.String(), collaborators[0].UserID)
	})

	t.Run("end date before start date is invalid", func(t *testing.T) {
		_, err := svc.CreateProject(ctx, CreateProjectRequest{
			Name:          "Viagem no tempo",
			StartDate:     "2026-09-10",
			EndDate:       "2026-09-01",
			ResponsibleID: responsible.ID.String(),
		})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("unknown responsible", func(t *testing.T) {
		_, err := svc.CreateProject(ctx, CreateProjectRequest{
			Name:          "Sem dono",
			StartDate:     "2026-09-01",
			ResponsibleID: "b7c2a840-0000-0000-0000-000000000000",
		})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestProjectCollaborators(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	ctx := context.Background()
	responsible := seedUser(t, db, model.RoleRegular)
	helper := seedUser(t, db, model.RoleRegular)

	project, err := svc.CreateProject(ctx, CreateProjectRequest{
		Name:          "Galpao Norte",
		StartDate:     "2026-09-01",
		ResponsibleID: responsible.ID.String(),
	})
	require.NoError(t, err)

	t.Run("add and remove a helper", func(t *testing.T) {
		_, err := svc.AddCollaborator(ctx, project.ID, CollaboratorRequest{UserID: helper.ID.String()})
		require.NoError(t, err)

		_, err = svc.AddCollaborator(ctx, project.ID, CollaboratorRequest{UserID: helper.ID.String()})
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))

		require.NoError(t, svc.RemoveCollaborator(ctx, project.ID, helper.ID.String()))
	})

	t.Run("responsible cannot be removed", func(t *testing.T) {
		err := svc.RemoveCollaborator(ctx, project.ID, responsible.ID.String())
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	})

	t.Run("reassigned responsible joins automatically", func(t *testing.T) {
		_, err := svc.UpdateProject(ctx, project.ID, UpdateProjectRequest{ResponsibleID: helper.ID.String()})
		require.NoError(t, err)

		collaborators, err := svc.ListCollaborators(ctx, project.ID)
		require.NoError(t, err)
		ids := make(map[string]bool, len(collaborators))
		for _, c := range collaborators {
			ids[c.UserID] = true
		}
		assert.True(t, ids[helper.ID.String()])
	})
}

func TestProjectAllocations(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	ctx := context.Background()
	responsible := seedUser(t, db, model.RoleRegular)
	product := seedProduct(t, db, 50, 0)

	project, err := svc.CreateProject(ctx, CreateProjectRequest{
		Name:          "Ala Leste",
		StartDate:     "2026-09-01",
		ResponsibleID: responsible.ID.String(),
	})
	require.NoError(t, err)

	t.Run("allocating again updates instead of duplicating", func(t *testing.T) {
		first, err := svc.AllocateProduct(ctx, project.ID, AllocateProductRequest{
			ProductID: product.ID.String(),
			Quantity:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, 10, first.Quantity)

		second, err := svc.AllocateProduct(ctx, project.ID, AllocateProductRequest{
			ProductID: product.ID.String(),
			Quantity:  25,
			Note:      "ajuste",
		})
		require.NoError(t, err)
		assert.Equal(t, 25, second.Quantity)
		assert.Equal(t, "ajuste", second.Note)

		allocations, err := svc.ListAllocations(ctx, project.ID)
		require.NoError(t, err)
		assert.Len(t, allocations, 1)
	})

	t.Run("removing frees the slot", func(t *testing.T) {
		require.NoError(t, svc.RemoveAllocation(ctx, project.ID, product.ID.String()))

		allocations, err := svc.ListAllocations(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, allocations)
	})
}

func TestDeleteProject(t *testing.T) {
	db := newTestDB(t)
	projectSvc := newProjectService(db)
	stockSvc := newStockService(db)
	ctx := context.Background()
	responsible := seedUser(t, db, model.RoleRegular)
	product := seedProduct(t, db, 10, 0)

	project, err := projectSvc.CreateProject(ctx, CreateProjectRequest{
		Name:          "Obra Curta",
		StartDate:     "2026-09-01",
		ResponsibleID: responsible.ID.String(),
	})
	require.NoError(t, err)

	movement, err := stockSvc.RecordMovement(ctx, responsible.ID.String(), RecordMovementRequest{
		ProductID: product.ID.String(),
		Type:      model.MovementOut,
		Quantity:  2,
		ProjectID: project.ID,
	})
	require.NoError(t, err)

	t.Run("blocked while movements reference it", func(t *testing.T) {
		err := projectSvc.DeleteProject(ctx, project.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("removable once the ledger lets go", func(t *testing.T) {
		require.NoError(t, stockSvc.DeleteMovement(ctx, responsible.ID.String(), movement.ID))
		require.NoError(t, projectSvc.DeleteProject(ctx, project.ID))

		_, err := projectSvc.GetProject(ctx, project.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}
