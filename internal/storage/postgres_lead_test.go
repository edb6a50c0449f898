package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/workspace"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
)

const testWorkspaceID = "workspace-lead-test-42"

func newTestLeadRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	logger.Log = zaptest.NewLogger(t).Named("test")
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		SkipDefaultTransaction: true,
	})
	assert.NoError(t, err)
	return &PostgresRepo{db: gormDB}, mock
}

func contextWithWorkspace() context.Context {
	return workspace.WithID(context.Background(), testWorkspaceID)
}

func TestPostgresRepo_SaveLead_Insert(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	lead := model.Lead{
		ID:          "lead-insert-1",
		WorkspaceID: testWorkspaceID,
		Name:        "Insert Lead",
		Phone:       "555-1111",
		Source:      model.SourceInstagram,
		DateAdded:   "2025-01-15",
	}
	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs(lead.ID, 1).WillReturnError(gorm.ErrRecordNotFound)
	insertPattern := `INSERT INTO "leads" ("id","workspace_id","name","phone","email","source","date_added","first_call_date","first_call_status","notes","second_call_date","second_call_status","second_call_notes","final_call_date","final_status","final_notes","last_updated","duplicate_lead_ids","duplicate_date_adds","created_at","updated_at") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`
	mock.ExpectExec(insertPattern).
		WithArgs(
			lead.ID, lead.WorkspaceID, lead.Name, lead.Phone, lead.Email,
			lead.Source, lead.DateAdded, lead.FirstCallDate, lead.FirstCallStatus, lead.Notes,
			lead.SecondCallDate, lead.SecondCallStatus, lead.SecondCallNotes,
			lead.FinalCallDate, lead.FinalStatus, lead.FinalNotes,
			nil, lead.DuplicateLeadIDs, lead.DuplicateDateAdds,
			AnyTime{}, AnyTime{},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := repo.Save(ctx, lead)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveLead_Update(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	now := time.Now()
	lead := model.Lead{
		ID:          "lead-update-1",
		WorkspaceID: testWorkspaceID,
		Name:        "Updated Lead",
		Phone:       "555-1111",
	}
	existingCols := []string{"id", "workspace_id", "name", "phone", "created_at", "updated_at"}
	existingRows := sqlmock.NewRows(existingCols).AddRow(lead.ID, lead.WorkspaceID, "Old Name", "555-1111", now.Add(-time.Hour), now.Add(-time.Minute))
	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs(lead.ID, 1).WillReturnRows(existingRows)
	updatePattern := `UPDATE "leads" SET "id"=$1,"workspace_id"=$2,"name"=$3,"phone"=$4,"updated_at"=$5 WHERE "id" = $6`
	mock.ExpectExec(updatePattern).
		WithArgs(lead.ID, lead.WorkspaceID, lead.Name, lead.Phone, AnyTime{}, lead.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := repo.Save(ctx, lead)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveLead_WorkspaceMismatch(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	lead := model.Lead{ID: "lead-mismatch", WorkspaceID: "wrong-workspace"}
	err := repo.Save(ctx, lead)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_UpdateLead_NotFound(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	lead := model.Lead{ID: "lead-not-found", WorkspaceID: testWorkspaceID}
	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs(lead.ID, 1).WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()
	err := repo.Update(ctx, lead)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindLeadByID_Found(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	now := time.Now()
	cols := []string{"id", "workspace_id", "name", "phone", "date_added", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).AddRow("lead-id-1", testWorkspaceID, "Lead Name", "555-1111", "2025-01-15", now.Add(-time.Hour), now.Add(-time.Minute))
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 AND workspace_id = $2 ORDER BY "leads"."id" LIMIT $3`
	mock.ExpectQuery(selectQuery).WithArgs("lead-id-1", testWorkspaceID, 1).WillReturnRows(rows)
	found, err := repo.FindByID(ctx, "lead-id-1")
	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, "lead-id-1", found.ID)
	assert.Equal(t, "2025-01-15", found.DateAdded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindLeadByID_NotFound(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 AND workspace_id = $2 ORDER BY "leads"."id" LIMIT $3`
	mock.ExpectQuery(selectQuery).WithArgs("lead-id-404", testWorkspaceID, 1).WillReturnError(gorm.ErrRecordNotFound)
	found, err := repo.FindByID(ctx, "lead-id-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindAll(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	now := time.Now()
	cols := []string{"id", "workspace_id", "name", "date_added", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("lead-1", testWorkspaceID, "First", "2025-01-01", now, now).
		AddRow("lead-2", testWorkspaceID, "Second", "2025-01-02", now, now)
	selectQuery := `SELECT * FROM "leads" WHERE workspace_id = $1 ORDER BY date_added, id`
	mock.ExpectQuery(selectQuery).WithArgs(testWorkspaceID).WillReturnRows(rows)
	leads, err := repo.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, leads, 2)
	assert.Equal(t, "lead-1", leads[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_BulkUpsertLeads_Success(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	leads := []model.Lead{
		{ID: "bulk-lead-1", WorkspaceID: testWorkspaceID, Name: "One", Phone: "555-0001", DateAdded: "2025-01-01"},
		{ID: "bulk-lead-2", WorkspaceID: testWorkspaceID, Name: "Two", Phone: "555-0002", DateAdded: "2025-01-02"},
	}
	mock.ExpectBegin()
	upsertPattern := `INSERT INTO "leads" ("id","workspace_id","name","phone","email","source","date_added","first_call_date","first_call_status","notes","second_call_date","second_call_status","second_call_notes","final_call_date","final_status","final_notes","last_updated","duplicate_lead_ids","duplicate_date_adds","created_at","updated_at") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21),($22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,$41,$42) ON CONFLICT ("id") DO UPDATE SET "workspace_id"="excluded"."workspace_id","name"="excluded"."name","phone"="excluded"."phone","email"="excluded"."email","source"="excluded"."source","date_added"="excluded"."date_added","first_call_date"="excluded"."first_call_date","first_call_status"="excluded"."first_call_status","notes"="excluded"."notes","second_call_date"="excluded"."second_call_date","second_call_status"="excluded"."second_call_status","second_call_notes"="excluded"."second_call_notes","final_call_date"="excluded"."final_call_date","final_status"="excluded"."final_status","final_notes"="excluded"."final_notes","last_updated"="excluded"."last_updated","duplicate_lead_ids"="excluded"."duplicate_lead_ids","duplicate_date_adds"="excluded"."duplicate_date_adds","updated_at"="excluded"."updated_at"`
	mock.ExpectExec(upsertPattern).
		WithArgs(
			leads[0].ID, leads[0].WorkspaceID, leads[0].Name, leads[0].Phone, leads[0].Email,
			leads[0].Source, leads[0].DateAdded, leads[0].FirstCallDate, leads[0].FirstCallStatus, leads[0].Notes,
			leads[0].SecondCallDate, leads[0].SecondCallStatus, leads[0].SecondCallNotes,
			leads[0].FinalCallDate, leads[0].FinalStatus, leads[0].FinalNotes,
			nil, leads[0].DuplicateLeadIDs, leads[0].DuplicateDateAdds,
			AnyTime{}, AnyTime{},
			leads[1].ID, leads[1].WorkspaceID, leads[1].Name, leads[1].Phone, leads[1].Email,
			leads[1].Source, leads[1].DateAdded, leads[1].FirstCallDate, leads[1].FirstCallStatus, leads[1].Notes,
			leads[1].SecondCallDate, leads[1].SecondCallStatus, leads[1].SecondCallNotes,
			leads[1].FinalCallDate, leads[1].FinalStatus, leads[1].FinalNotes,
			nil, leads[1].DuplicateLeadIDs, leads[1].DuplicateDateAdds,
			AnyTime{}, AnyTime{},
		).
		WillReturnResult(sqlmock.NewResult(0, int64(len(leads))))
	mock.ExpectCommit()
	err := repo.BulkUpsert(ctx, leads)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_BulkUpsertLeads_SkipMismatchedWorkspace(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	leads := []model.Lead{
		{ID: "bulk-skip-1", WorkspaceID: "other-workspace", Name: "Skipped"},
	}
	// The only lead belongs to another workspace so no SQL runs at all.
	err := repo.BulkUpsert(ctx, leads)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_DeleteByIDs(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	deleteQuery := `DELETE FROM "leads" WHERE id IN ($1,$2) AND workspace_id = $3`
	mock.ExpectExec(deleteQuery).
		WithArgs("lead-1", "lead-2", testWorkspaceID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	err := repo.DeleteByIDs(ctx, []string{"lead-1", "lead-2"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_DeleteByIDs_Empty(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	ctx := contextWithWorkspace()
	err := repo.DeleteByIDs(ctx, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_NoWorkspaceInContext(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	err := repo.Save(context.Background(), model.Lead{ID: "lead-1", WorkspaceID: testWorkspaceID})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}
