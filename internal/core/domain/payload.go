package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var (
	ErrPayloadMissing    = errors.New("payload is required")
	ErrUnsupportedKind   = errors.New("unsupported workflow kind")
	ErrAmountNotPositive = errors.New("must be greater than zero")
)

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Payload is the kind-specific body of a workflow entity.
type Payload interface {
	// Validate checks required fields and numeric ranges.
	Validate() error
	// Title is a short human label used in notifications and exports.
	Title() string
}

// ExpenditurePayload is the body of an expenditure request raised by school staff.
type ExpenditurePayload struct {
	RequestTitle string          `json:"title" validate:"required,notblank"`
	Description  string          `json:"description,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category" validate:"required,oneof=supplies maintenance salaries utilities transport equipment events other"`
	Priority     string          `json:"priority" validate:"required,oneof=low medium high urgent"`
	Department   string          `json:"department,omitempty"`
	Vendor       string          `json:"vendor,omitempty"`
}

func (p *ExpenditurePayload) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("amount %w", ErrAmountNotPositive)
	}
	return nil
}

func (p *ExpenditurePayload) Title() string { return p.RequestTitle }

// FinancialReportPayload is a bursar's periodic financial report.
type FinancialReportPayload struct {
	ReportTitle      string          `json:"title" validate:"required,notblank"`
	ReportType       string          `json:"reportType" validate:"required,oneof=monthly termly annual"`
	Content          string          `json:"content" validate:"required,notblank"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenditure decimal.Decimal `json:"totalExpenditure"`
}

func (p *FinancialReportPayload) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if !p.TotalIncome.IsPositive() {
		return fmt.Errorf("totalIncome %w", ErrAmountNotPositive)
	}
	if !p.TotalExpenditure.IsPositive() {
		return fmt.Errorf("totalExpenditure %w", ErrAmountNotPositive)
	}
	return nil
}

func (p *FinancialReportPayload) Title() string { return p.ReportTitle }

// NetBalance is income minus expenditure for the reported period.
func (p *FinancialReportPayload) NetBalance() decimal.Decimal {
	return p.TotalIncome.Sub(p.TotalExpenditure)
}

// ExamReportPayload is an exam officer's report on an assessment.
type ExamReportPayload struct {
	ReportTitle      string           `json:"title" validate:"required,notblank"`
	ClassName        string           `json:"className" validate:"required,notblank"`
	Subject          string           `json:"subject" validate:"required,notblank"`
	ExamType         string           `json:"examType" validate:"required,oneof=midterm final mock entrance"`
	Content          string           `json:"content" validate:"required,notblank"`
	StudentsAssessed int              `json:"studentsAssessed" validate:"gt=0"`
	PassRate         *decimal.Decimal `json:"passRate,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (p *ExamReportPayload) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.PassRate != nil && (p.PassRate.IsNegative() || p.PassRate.GreaterThan(hundred)) {
		return errors.New("passRate must be between 0 and 100")
	}
	return nil
}

func (p *ExamReportPayload) Title() string { return p.ReportTitle }

// NewPayload returns an empty payload value for the kind.
func NewPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindExpenditure:
		return &ExpenditurePayload{}, nil
	case KindFinancialReport:
		return &FinancialReportPayload{}, nil
	case KindExamReport:
		return &ExamReportPayload{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

// DecodePayload strictly decodes raw JSON into the kind's schema and validates it.
// Unknown fields are rejected.
func DecodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	p, err := NewPayload(kind)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrPayloadMissing
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("malformed %s payload: %w", kind, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NormalizePayload decodes, validates and re-encodes the payload in canonical form.
func NormalizePayload(kind Kind, raw json.RawMessage) (json.RawMessage, Payload, error) {
	p, err := DecodePayload(kind, raw)
	if err != nil {
		return nil, nil, err
	}
	out, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return out, p, nil
}

func validateStruct(s any) error {
	err := payloadValidator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "notblank":
			msgs = append(msgs, field+" must not be blank")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
