package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/core/services"
	"github.com/SscSPs/school_workflow_app/internal/dto"
	"github.com/SscSPs/school_workflow_app/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var (
	teacher     = domain.Principal{ID: "t-1", Name: "Mr. Obi", Role: domain.RoleTeacher}
	teacher2    = domain.Principal{ID: "t-2", Name: "Ms. Eze", Role: domain.RoleTeacher}
	bursar      = domain.Principal{ID: "b-1", Name: "Mrs. Okafor", Role: domain.RoleBursar}
	headteacher = domain.Principal{ID: "p-1", Name: "Mrs. Adeyemi", Role: domain.RolePrincipal}
	admin       = domain.Principal{ID: "a-1", Name: "Admin", Role: domain.RoleAdmin}
	examOfficer = domain.Principal{ID: "x-1", Name: "Mr. Bello", Role: domain.RoleExamOfficer}

	firstTerm = domain.Period{AcademicSession: "2023/2024", Term: domain.FirstTerm}
)

func expenditurePayload(title, amount string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"title":%q,"amount":%q,"category":"supplies","priority":"high"}`, title, amount))
}

func examReportPayload() json.RawMessage {
	return json.RawMessage(`{"title":"JSS2 Mathematics","className":"JSS2","subject":"Mathematics","examType":"midterm","content":"Results attached","studentsAssessed":42}`)
}

func ptr[T any](v T) *T { return &v }

// MockNotificationSink is a mock type for the NotificationSink interface
type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Name() string {
	return "mock"
}

func (m *MockNotificationSink) Deliver(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// delivered returns the notifications the sink received.
func (m *MockNotificationSink) delivered() []domain.Notification {
	var out []domain.Notification
	for _, call := range m.Calls {
		if call.Method == "Deliver" {
			out = append(out, call.Arguments.Get(1).(domain.Notification))
		}
	}
	return out
}

// --- Test Suite Setup ---

type WorkflowServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	repos    portsrepo.RepositoryProvider
	sink     *MockNotificationSink
	notifier portssvc.NotifierSvc
	service  portssvc.WorkflowSvcFacade
}

func (suite *WorkflowServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.repos = memory.NewRepositoryProvider()
	suite.sink = new(MockNotificationSink)
	suite.sink.On("Deliver", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.notifier = services.NewNotificationService(0, suite.sink)
	suite.service = services.NewWorkflowService(suite.repos.WorkflowRepo, suite.notifier)
}

func (suite *WorkflowServiceTestSuite) createExpenditure(owner domain.Principal, amount string) *domain.WorkflowEntity {
	e, err := suite.service.CreateEntity(suite.ctx, owner, domain.KindExpenditure, dto.CreateWorkflowRequest{
		Period:  firstTerm,
		Payload: expenditurePayload("Lab supplies", amount),
	})
	suite.Require().NoError(err)
	return e
}

func (suite *WorkflowServiceTestSuite) submitted(owner domain.Principal, amount string) *domain.WorkflowEntity {
	e := suite.createExpenditure(owner, amount)
	e, err := suite.service.SubmitEntity(suite.ctx, owner, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	suite.Require().NoError(err)
	return e
}

// --- Test Cases ---

func (suite *WorkflowServiceTestSuite) TestCreateEntity_Draft() {
	e := suite.createExpenditure(teacher, "1500.50")

	suite.NotEmpty(e.EntityID)
	suite.Equal(domain.KindExpenditure, e.Kind)
	suite.Equal(domain.StatusDraft, e.Status)
	suite.Equal(teacher.ID, e.OwnerID)
	suite.Equal(teacher.Name, e.OwnerName)
	suite.Equal(firstTerm, e.Period)
	suite.Equal(int64(1), e.Version)
	suite.Nil(e.SubmittedAt)
	suite.Nil(e.ReviewedAt)
	suite.JSONEq(`{"title":"Lab supplies","amount":"1500.5","category":"supplies","priority":"high"}`, string(e.Payload))

	stored, err := suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	suite.Equal(*e, *stored)

	history, err := suite.service.History(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(domain.ActionCreate, history[0].Action)
	suite.Equal(domain.StatusDraft, history[0].ToStatus)
}

func (suite *WorkflowServiceTestSuite) TestCreateEntity_SubmitImmediately() {
	e, err := suite.service.CreateEntity(suite.ctx, teacher, domain.KindExpenditure, dto.CreateWorkflowRequest{
		Period:  firstTerm,
		Payload: expenditurePayload("Lab supplies", "300"),
		Submit:  true,
	})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, e.Status)
	suite.NotNil(e.SubmittedAt)
	suite.Equal(int64(2), e.Version)
}

func (suite *WorkflowServiceTestSuite) TestCreateEntity_Rejects() {
	tests := []struct {
		name    string
		actor   domain.Principal
		kind    domain.Kind
		req     dto.CreateWorkflowRequest
		wantErr error
	}{
		{"missing title", teacher, domain.KindExpenditure, dto.CreateWorkflowRequest{Period: firstTerm, Payload: json.RawMessage(`{"amount":"10","category":"supplies","priority":"low"}`)}, apperrors.ErrValidation},
		{"blank title", teacher, domain.KindExpenditure, dto.CreateWorkflowRequest{Period: firstTerm, Payload: expenditurePayload("   ", "10")}, apperrors.ErrValidation},
		{"blank exam subject", examOfficer, domain.KindExamReport, dto.CreateWorkflowRequest{Period: firstTerm, Payload: json.RawMessage(`{"title":"JSS2 Mathematics","className":"JSS2","subject":" ","examType":"midterm","content":"Results attached","studentsAssessed":42}`)}, apperrors.ErrValidation},
		{"zero amount", teacher, domain.KindExpenditure, dto.CreateWorkflowRequest{Period: firstTerm, Payload: expenditurePayload("Chalk", "0")}, apperrors.ErrValidation},
		{"bad session", teacher, domain.KindExpenditure, dto.CreateWorkflowRequest{Period: domain.Period{AcademicSession: "2023/2025", Term: domain.FirstTerm}, Payload: expenditurePayload("Chalk", "5")}, apperrors.ErrValidation},
		{"unknown kind", teacher, domain.Kind("timetable"), dto.CreateWorkflowRequest{Period: firstTerm, Payload: expenditurePayload("Chalk", "5")}, apperrors.ErrValidation},
		{"role may not create", headteacher, domain.KindExpenditure, dto.CreateWorkflowRequest{Period: firstTerm, Payload: expenditurePayload("Chalk", "5")}, apperrors.ErrForbidden},
		{"teacher financial report", teacher, domain.KindFinancialReport, dto.CreateWorkflowRequest{Period: firstTerm, Payload: json.RawMessage(`{}`)}, apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			e, err := suite.service.CreateEntity(suite.ctx, tt.actor, tt.kind, tt.req)
			suite.ErrorIs(err, tt.wantErr)
			suite.Nil(e)
		})
	}

	all, err := suite.service.ListByOwner(suite.ctx, admin, domain.KindExpenditure, teacher.ID)
	suite.Require().NoError(err)
	suite.Empty(all)
}

func (suite *WorkflowServiceTestSuite) TestExpenditureLifecycle_ApprovalIgnoresSufficiency() {
	agg := services.NewAggregationService(suite.repos.WorkflowRepo, suite.service, nil)

	e := suite.submitted(teacher, "50000")
	suite.Equal(domain.StatusPending, e.Status)
	suite.NotNil(e.SubmittedAt)

	check := agg.CheckSufficiency(decimal.NewFromInt(50000), decimal.NewFromInt(40000))
	suite.False(check.Sufficient)
	suite.True(check.Shortfall.Equal(decimal.NewFromInt(10000)))

	approved, err := suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{Comments: ptr("Go ahead")})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, approved.Status)
	suite.Require().NotNil(approved.ReviewedAt)
	suite.Equal(headteacher.ID, *approved.ReviewerID)
	suite.Equal(headteacher.Name, *approved.ReviewerName)
	suite.Equal("Go ahead", *approved.ReviewComments)

	total, err := agg.TotalApproved(suite.ctx, firstTerm)
	suite.Require().NoError(err)
	suite.True(total.Equal(decimal.NewFromInt(50000)))

	completed, err := suite.service.CompleteEntity(suite.ctx, bursar, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, completed.Status)
	suite.NotNil(completed.CompletedAt)
	suite.NotNil(completed.ReviewedAt)

	total, err = agg.TotalApproved(suite.ctx, firstTerm)
	suite.Require().NoError(err)
	suite.True(total.Equal(decimal.NewFromInt(50000)))

	history, err := suite.service.History(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	actions := make([]domain.Action, len(history))
	for i, r := range history {
		actions[i] = r.Action
	}
	suite.Equal([]domain.Action{domain.ActionCreate, domain.ActionSubmit, domain.ActionApprove, domain.ActionComplete}, actions)
	suite.Equal("Go ahead", history[2].Note)
}

func (suite *WorkflowServiceTestSuite) TestRejectEntity_RequiresReason() {
	e := suite.submitted(teacher, "900")

	for _, reason := range []*string{nil, ptr(""), ptr("   ")} {
		_, err := suite.service.RejectEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{Reason: reason})
		suite.ErrorIs(err, apperrors.ErrValidation)
	}

	unchanged, err := suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, unchanged.Status)
	suite.Equal(e.Version, unchanged.Version)
	suite.Nil(unchanged.RejectionReason)
	suite.Nil(unchanged.ReviewedAt)
}

func (suite *WorkflowServiceTestSuite) TestResubmission_KeepsRejectionReason() {
	e := suite.submitted(teacher, "900")

	rejected, err := suite.service.RejectEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{Reason: ptr("Quote is missing")})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, rejected.Status)
	suite.Equal("Quote is missing", *rejected.RejectionReason)
	suite.NotNil(rejected.ReviewedAt)

	resubmitted, err := suite.service.SubmitEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{
		Payload: expenditurePayload("Lab supplies with quote", "850"),
	})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, resubmitted.Status)
	suite.Require().NotNil(resubmitted.RejectionReason)
	suite.Equal("Quote is missing", *resubmitted.RejectionReason)
	suite.Nil(resubmitted.ReviewedAt)
	suite.Nil(resubmitted.ReviewerID)
	suite.Nil(resubmitted.ReviewerName)
	suite.Contains(string(resubmitted.Payload), "Lab supplies with quote")

	approved, err := suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, approved.Status)
}

// inStatus drives a fresh expenditure owned by the teacher to the given status.
func (suite *WorkflowServiceTestSuite) inStatus(status domain.Status) *domain.WorkflowEntity {
	e := suite.createExpenditure(teacher, "100")
	if status == domain.StatusDraft {
		return e
	}
	e, err := suite.service.SubmitEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	suite.Require().NoError(err)
	switch status {
	case domain.StatusRejected:
		e, err = suite.service.RejectEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{Reason: ptr("no")})
		suite.Require().NoError(err)
	case domain.StatusApproved, domain.StatusCompleted:
		e, err = suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
		suite.Require().NoError(err)
		if status == domain.StatusCompleted {
			e, err = suite.service.CompleteEntity(suite.ctx, bursar, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
			suite.Require().NoError(err)
		}
	}
	suite.Require().Equal(status, e.Status)
	return e
}

func (suite *WorkflowServiceTestSuite) TestInvalidTransitions() {
	legal := map[domain.Status][]domain.Action{
		domain.StatusDraft:    {domain.ActionEdit, domain.ActionSubmit, domain.ActionDelete},
		domain.StatusPending:  {domain.ActionEdit, domain.ActionApprove, domain.ActionReject, domain.ActionDelete},
		domain.StatusRejected: {domain.ActionEdit, domain.ActionSubmit, domain.ActionDelete},
		domain.StatusApproved: {domain.ActionComplete},
	}

	// Each action is attempted by an actor who would be allowed to take it from a legal state.
	attempts := map[domain.Action]func(id string) error{
		domain.ActionEdit: func(id string) error {
			_, err := suite.service.EditEntity(suite.ctx, teacher, domain.KindExpenditure, id, expenditurePayload("More", "1"), nil)
			return err
		},
		domain.ActionSubmit: func(id string) error {
			_, err := suite.service.SubmitEntity(suite.ctx, teacher, domain.KindExpenditure, id, dto.TransitionRequest{})
			return err
		},
		domain.ActionApprove: func(id string) error {
			_, err := suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExpenditure, id, dto.TransitionRequest{})
			return err
		},
		domain.ActionReject: func(id string) error {
			_, err := suite.service.RejectEntity(suite.ctx, headteacher, domain.KindExpenditure, id, dto.TransitionRequest{Reason: ptr("late")})
			return err
		},
		domain.ActionComplete: func(id string) error {
			_, err := suite.service.CompleteEntity(suite.ctx, bursar, domain.KindExpenditure, id, dto.TransitionRequest{})
			return err
		},
		domain.ActionDelete: func(id string) error {
			return suite.service.DeleteEntity(suite.ctx, teacher, domain.KindExpenditure, id, nil)
		},
	}
	actions := []domain.Action{
		domain.ActionEdit, domain.ActionSubmit, domain.ActionApprove,
		domain.ActionReject, domain.ActionComplete, domain.ActionDelete,
	}

	for _, status := range domain.Statuses {
		e := suite.inStatus(status)
		for _, action := range actions {
			if slices.Contains(legal[status], action) {
				continue
			}
			suite.Run(string(action)+" from "+string(status), func() {
				err := attempts[action](e.EntityID)
				suite.ErrorIs(err, apperrors.ErrInvalidTransition)
				var te *apperrors.TransitionError
				suite.Require().True(errors.As(err, &te))
				suite.Equal(string(status), te.Status)
				suite.Equal(string(action), te.Action)

				stored, err := suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
				suite.Require().NoError(err)
				suite.Equal(status, stored.Status)
				suite.Equal(e.Version, stored.Version)
			})
		}
	}
}

func (suite *WorkflowServiceTestSuite) TestCompleteEntity_OnlyExpenditures() {
	report, err := suite.service.CreateEntity(suite.ctx, examOfficer, domain.KindExamReport, dto.CreateWorkflowRequest{
		Period: firstTerm, Payload: examReportPayload(), Submit: true,
	})
	suite.Require().NoError(err)
	_, err = suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExamReport, report.EntityID, dto.TransitionRequest{})
	suite.Require().NoError(err)

	_, err = suite.service.CompleteEntity(suite.ctx, admin, domain.KindExamReport, report.EntityID, dto.TransitionRequest{})
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	var te *apperrors.TransitionError
	suite.Require().True(errors.As(err, &te))
	suite.Equal(string(domain.KindExamReport), te.Kind)
}

func (suite *WorkflowServiceTestSuite) TestAuthorization() {
	e := suite.submitted(teacher, "400")

	_, err := suite.service.EditEntity(suite.ctx, admin, domain.KindExpenditure, e.EntityID, expenditurePayload("Hijack", "1"), nil)
	suite.ErrorIs(err, apperrors.ErrForbidden, "only the owner edits")

	_, err = suite.service.ApproveEntity(suite.ctx, teacher2, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	suite.ErrorIs(err, apperrors.ErrForbidden, "teachers do not read other teachers' entities")

	_, err = suite.service.ApproveEntity(suite.ctx, bursar, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	suite.ErrorIs(err, apperrors.ErrForbidden, "bursars complete but do not review")

	own, err := suite.service.CreateEntity(suite.ctx, admin, domain.KindExpenditure, dto.CreateWorkflowRequest{
		Period: firstTerm, Payload: expenditurePayload("Printer", "700"), Submit: true,
	})
	suite.Require().NoError(err)
	_, err = suite.service.ApproveEntity(suite.ctx, admin, domain.KindExpenditure, own.EntityID, dto.TransitionRequest{})
	suite.ErrorIs(err, apperrors.ErrForbidden, "owners never review their own entities")

	_, err = suite.service.GetEntity(suite.ctx, teacher2, domain.KindExpenditure, e.EntityID)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	_, err = suite.service.GetEntity(suite.ctx, bursar, domain.KindExpenditure, e.EntityID)
	suite.NoError(err)

	unchanged, err := suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	suite.Equal(e.Version, unchanged.Version)
}

func (suite *WorkflowServiceTestSuite) TestGetEntity_KindMismatchIsNotFound() {
	e := suite.createExpenditure(teacher, "10")

	_, err := suite.service.GetEntity(suite.ctx, admin, domain.KindExamReport, e.EntityID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.service.GetEntity(suite.ctx, admin, domain.KindExpenditure, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WorkflowServiceTestSuite) TestEditEntity() {
	e := suite.submitted(teacher, "10")

	edited, err := suite.service.EditEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, expenditurePayload("Chalk and dusters", "12"), ptr(e.Version))
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, edited.Status)
	suite.Equal(e.Version+1, edited.Version)
	suite.Contains(string(edited.Payload), "Chalk and dusters")

	_, err = suite.service.EditEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, json.RawMessage(`{"title":"x"}`), nil)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *WorkflowServiceTestSuite) TestExpectedVersionMismatch() {
	e := suite.submitted(teacher, "10")

	_, err := suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{ExpectedVersion: ptr(e.Version - 1)})
	suite.ErrorIs(err, apperrors.ErrConflict)

	err = suite.service.DeleteEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, ptr(int64(99)))
	suite.ErrorIs(err, apperrors.ErrConflict)

	current, err := suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, current.Status)
}

func (suite *WorkflowServiceTestSuite) TestConcurrentReviewers_ExactlyOneWins() {
	e := suite.submitted(teacher, "5000")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = suite.service.ApproveEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = suite.service.RejectEntity(suite.ctx, admin, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{Reason: ptr("Over budget")})
	}()
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		suite.True(errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidTransition), err.Error())
	}
	suite.Equal(1, wins)

	final, err := suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.Require().NoError(err)
	suite.Equal(e.Version+1, final.Version)
}

func (suite *WorkflowServiceTestSuite) TestDeleteEntity() {
	e := suite.createExpenditure(teacher, "10")

	err := suite.service.DeleteEntity(suite.ctx, teacher2, domain.KindExpenditure, e.EntityID, nil)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	suite.Require().NoError(suite.service.DeleteEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, nil))

	_, err = suite.service.GetEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	err = suite.service.DeleteEntity(suite.ctx, teacher, domain.KindExpenditure, e.EntityID, nil)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WorkflowServiceTestSuite) TestListEntities_ReadRulesAndFilters() {
	mine := suite.submitted(teacher, "10")
	suite.createExpenditure(teacher, "20")
	suite.submitted(teacher2, "30")

	own, err := suite.service.ListEntities(suite.ctx, teacher, domain.KindExpenditure, dto.ListWorkflowParams{})
	suite.Require().NoError(err)
	suite.Len(own.Items, 2)

	others, err := suite.service.ListEntities(suite.ctx, teacher, domain.KindExpenditure, dto.ListWorkflowParams{Owner: teacher2.ID})
	suite.Require().NoError(err)
	suite.Empty(others.Items)

	pending, err := suite.service.ListEntities(suite.ctx, headteacher, domain.KindExpenditure, dto.ListWorkflowParams{Status: []string{"submitted"}})
	suite.Require().NoError(err)
	suite.Len(pending.Items, 2)

	mixed, err := suite.service.ListEntities(suite.ctx, headteacher, domain.KindExpenditure, dto.ListWorkflowParams{Status: []string{"draft,pending"}, Owner: teacher.ID})
	suite.Require().NoError(err)
	suite.Len(mixed.Items, 2)

	page, err := suite.service.ListEntities(suite.ctx, admin, domain.KindExpenditure, dto.ListWorkflowParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Len(page.Items, 2)
	suite.Require().NotNil(page.NextToken)
	rest, err := suite.service.ListEntities(suite.ctx, admin, domain.KindExpenditure, dto.ListWorkflowParams{Limit: 2, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Len(rest.Items, 1)
	suite.Nil(rest.NextToken)

	byPeriod, err := suite.service.ListByPeriod(suite.ctx, bursar, domain.KindExpenditure, "2023/2024", "")
	suite.Require().NoError(err)
	suite.Len(byPeriod, 3)

	byStatus, err := suite.service.ListByStatus(suite.ctx, teacher, domain.KindExpenditure, domain.StatusPending)
	suite.Require().NoError(err)
	suite.Require().Len(byStatus, 1)
	suite.Equal(mine.EntityID, byStatus[0].EntityID)

	_, err = suite.service.ListEntities(suite.ctx, admin, domain.KindExpenditure, dto.ListWorkflowParams{Status: []string{"archived"}})
	suite.ErrorIs(err, apperrors.ErrValidation)
	_, err = suite.service.ListEntities(suite.ctx, admin, domain.KindExpenditure, dto.ListWorkflowParams{Session: "2023"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *WorkflowServiceTestSuite) TestNotifications() {
	e := suite.submitted(teacher, "75")
	_, err := suite.service.RejectEntity(suite.ctx, headteacher, domain.KindExpenditure, e.EntityID, dto.TransitionRequest{Reason: ptr("No receipt")})
	suite.Require().NoError(err)
	suite.notifier.Wait()

	byTemplate := map[string][]string{}
	for _, n := range suite.sink.delivered() {
		suite.Equal(e.EntityID, n.EntityID)
		byTemplate[n.Template] = append(byTemplate[n.Template], n.RecipientID)
	}
	suite.ElementsMatch([]string{teacher.ID}, byTemplate[services.TemplateCreated])
	suite.ElementsMatch([]string{teacher.ID, "role:principal", "role:admin"}, byTemplate[services.TemplateSubmitted])
	suite.ElementsMatch([]string{teacher.ID}, byTemplate[services.TemplateRejected])

	for _, n := range suite.sink.delivered() {
		if n.Template == services.TemplateRejected {
			suite.Equal(domain.StatusPending, n.FromStatus)
			suite.Equal(domain.StatusRejected, n.ToStatus)
			suite.Equal(`Expenditure request "Lab supplies" was rejected by Mrs. Adeyemi. Reason: No receipt`, n.Message)
		}
	}
}

func (suite *WorkflowServiceTestSuite) TestNotificationFailureDoesNotFailTransition() {
	failing := new(MockNotificationSink)
	failing.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("inbox unavailable"))
	notifier := services.NewNotificationService(0, failing)
	svc := services.NewWorkflowService(suite.repos.WorkflowRepo, notifier)

	e, err := svc.CreateEntity(suite.ctx, teacher, domain.KindExpenditure, dto.CreateWorkflowRequest{
		Period: firstTerm, Payload: expenditurePayload("Chairs", "40"), Submit: true,
	})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, e.Status)

	notifier.Wait()
	failing.AssertCalled(suite.T(), "Deliver", mock.Anything, mock.Anything)
}

func TestWorkflowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceTestSuite))
}
