package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type WorkflowEntityRepositoryTestSuite struct {
	suite.Suite
	repo *WorkflowEntityRepository
	ctx  context.Context
	base time.Time
}

func (suite *WorkflowEntityRepositoryTestSuite) SetupTest() {
	suite.repo = newWorkflowEntityRepository()
	suite.ctx = context.Background()
	suite.base = time.Date(2023, 10, 1, 9, 0, 0, 0, time.UTC)
}

func (suite *WorkflowEntityRepositoryTestSuite) newEntity(offset time.Duration, owner string, status domain.Status, term domain.Term) domain.WorkflowEntity {
	created := suite.base.Add(offset)
	return domain.WorkflowEntity{
		EntityID: uuid.NewString(),
		Kind:     domain.KindExpenditure,
		OwnerID:  owner,
		Status:   status,
		Payload:  json.RawMessage(`{"title":"Chalk","amount":"100","category":"supplies","priority":"low"}`),
		Period:   domain.Period{AcademicSession: "2023/2024", Term: term},
		AuditFields: domain.AuditFields{
			CreatedAt:     created,
			CreatedBy:     owner,
			LastUpdatedAt: created,
			LastUpdatedBy: owner,
			Version:       1,
		},
	}
}

func (suite *WorkflowEntityRepositoryTestSuite) TestSaveAndFind() {
	e := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	found, err := suite.repo.FindEntityByID(suite.ctx, e.EntityID)
	suite.Require().NoError(err)
	suite.Equal(e, *found)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestSave_DuplicateNeverOverwrites() {
	e := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	other := e
	other.OwnerID = "intruder"
	err := suite.repo.SaveEntity(suite.ctx, other)
	suite.ErrorIs(err, apperrors.ErrDuplicate)

	found, _ := suite.repo.FindEntityByID(suite.ctx, e.EntityID)
	suite.Equal("owner-1", found.OwnerID)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestFind_NotFound() {
	found, err := suite.repo.FindEntityByID(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(found)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestFind_ReturnsCopy() {
	e := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	found, _ := suite.repo.FindEntityByID(suite.ctx, e.EntityID)
	found.Status = domain.StatusApproved
	found.Payload[0] = '['

	again, _ := suite.repo.FindEntityByID(suite.ctx, e.EntityID)
	suite.Equal(domain.StatusDraft, again.Status)
	suite.Equal(byte('{'), again.Payload[0])
}

func (suite *WorkflowEntityRepositoryTestSuite) TestUpdate_BumpsVersion() {
	e := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	e.Status = domain.StatusPending
	updated, err := suite.repo.UpdateEntity(suite.ctx, e, 1)
	suite.Require().NoError(err)
	suite.Equal(int64(2), updated.Version)
	suite.Equal(domain.StatusPending, updated.Status)

	found, _ := suite.repo.FindEntityByID(suite.ctx, e.EntityID)
	suite.Equal(int64(2), found.Version)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestUpdate_StaleVersion() {
	e := suite.newEntity(0, "owner-1", domain.StatusPending, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	_, err := suite.repo.UpdateEntity(suite.ctx, e, 1)
	suite.Require().NoError(err)

	e.Status = domain.StatusRejected
	_, err = suite.repo.UpdateEntity(suite.ctx, e, 1)
	suite.ErrorIs(err, apperrors.ErrConflict)

	found, _ := suite.repo.FindEntityByID(suite.ctx, e.EntityID)
	suite.Equal(domain.StatusPending, found.Status)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestUpdate_NotFound() {
	e := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	_, err := suite.repo.UpdateEntity(suite.ctx, e, 1)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestUpdate_ConcurrentWritersOneWins() {
	e := suite.newEntity(0, "owner-1", domain.StatusPending, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.repo.UpdateEntity(suite.ctx, e, 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if suite.ErrorIs(err, apperrors.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, successes)
	suite.Equal(writers-1, conflicts)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestDelete() {
	e := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))

	removed, err := suite.repo.DeleteEntity(suite.ctx, e.EntityID, 7)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.False(removed)

	removed, err = suite.repo.DeleteEntity(suite.ctx, e.EntityID, 1)
	suite.Require().NoError(err)
	suite.True(removed)

	removed, err = suite.repo.DeleteEntity(suite.ctx, e.EntityID, 1)
	suite.Require().NoError(err)
	suite.False(removed)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestList_FiltersAndOrder() {
	oldest := suite.newEntity(0, "owner-1", domain.StatusDraft, domain.FirstTerm)
	middle := suite.newEntity(time.Hour, "owner-2", domain.StatusApproved, domain.FirstTerm)
	newest := suite.newEntity(2*time.Hour, "owner-1", domain.StatusPending, domain.SecondTerm)
	report := suite.newEntity(3*time.Hour, "owner-1", domain.StatusDraft, domain.FirstTerm)
	report.Kind = domain.KindFinancialReport
	for _, e := range []domain.WorkflowEntity{oldest, middle, newest, report} {
		suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))
	}

	all, next, err := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{Kind: domain.KindExpenditure})
	suite.Require().NoError(err)
	suite.Nil(next)
	suite.Require().Len(all, 3)
	suite.Equal([]string{newest.EntityID, middle.EntityID, oldest.EntityID},
		[]string{all[0].EntityID, all[1].EntityID, all[2].EntityID})

	byOwner, _, _ := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{Kind: domain.KindExpenditure, OwnerID: "owner-1"})
	suite.Len(byOwner, 2)

	byTerm, _, _ := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{Session: "2023/2024", Term: domain.FirstTerm})
	suite.Len(byTerm, 3)

	byStatus, _, _ := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{
		Kind:     domain.KindExpenditure,
		Statuses: []domain.Status{domain.StatusApproved, domain.StatusPending},
	})
	suite.Len(byStatus, 2)

	none, _, _ := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{Session: "2024/2025"})
	suite.Empty(none)
	suite.NotNil(none)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestList_Pagination() {
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		e := suite.newEntity(time.Duration(i)*time.Minute, "owner-1", domain.StatusDraft, domain.FirstTerm)
		suite.Require().NoError(suite.repo.SaveEntity(suite.ctx, e))
		ids = append([]string{e.EntityID}, ids...)
	}

	seen := make([]string, 0, 5)
	var token *string
	for page := 0; page < 3; page++ {
		items, next, err := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{Limit: 2, NextToken: token})
		suite.Require().NoError(err)
		for _, it := range items {
			seen = append(seen, it.EntityID)
		}
		token = next
		if next == nil {
			break
		}
	}
	suite.Nil(token)
	suite.Equal(ids, seen)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestList_BadToken() {
	bad := "%%%"
	_, _, err := suite.repo.ListEntities(suite.ctx, portsrepo.EntityFilter{NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *WorkflowEntityRepositoryTestSuite) TestTransitions_OldestFirst() {
	first := domain.TransitionRecord{RecordID: "r1", EntityID: "e1", Action: domain.ActionCreate, ToStatus: domain.StatusDraft}
	second := domain.TransitionRecord{RecordID: "r2", EntityID: "e1", Action: domain.ActionSubmit, FromStatus: domain.StatusDraft, ToStatus: domain.StatusPending}
	suite.Require().NoError(suite.repo.AppendTransition(suite.ctx, first))
	suite.Require().NoError(suite.repo.AppendTransition(suite.ctx, second))

	history, err := suite.repo.ListTransitions(suite.ctx, "e1")
	suite.Require().NoError(err)
	suite.Equal([]domain.TransitionRecord{first, second}, history)

	empty, err := suite.repo.ListTransitions(suite.ctx, "e2")
	suite.Require().NoError(err)
	suite.Empty(empty)
}

func TestWorkflowEntityRepository(t *testing.T) {
	suite.Run(t, new(WorkflowEntityRepositoryTestSuite))
}
