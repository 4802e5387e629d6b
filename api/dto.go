/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Money and hours are
  decimals inside the engine and plain numbers on the wire; rounding for
  display is left to the client.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Week:      WeekDTO, PersonDTO, ShiftDTO
  Payments:  PaymentDTO, HoursDTO, PaymentsDTO, TotalsDTO
  Edits:     ShiftRequest, RatesRequest, BonusRequest, LabelRequest
  Roster:    AddPersonRequest, RenamePersonRequest, LeaderRequest
  History:   RevisionDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the payroll package, not in DTOs.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WorkbookSummaryDTO describes the workbook without its weeks.
type WorkbookSummaryDTO struct {
	Title  string   `json:"title"`
	Days   []string `json:"days"`
	Weeks  int      `json:"weeks"`
	People []string `json:"people"`
}

// ShiftDTO is one cell of the schedule.
type ShiftDTO struct {
	Kind  string  `json:"kind"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Hours float64 `json:"hours"`
}

// PersonDTO is one roster row of a week.
type PersonDTO struct {
	Name   string              `json:"name"`
	Leader bool                `json:"leader"`
	Shifts map[string]ShiftDTO `json:"shifts"`
	Rates  *RatesDTO           `json:"rates,omitempty"`
	Bonus  *BonusDTO           `json:"bonus,omitempty"`
}

type RatesDTO struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
}

type BonusDTO struct {
	Enabled     bool    `json:"enabled"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type HoursDTO struct {
	Total    float64 `json:"total"`
	Solo     float64 `json:"solo"`
	Saturday float64 `json:"saturday"`
}

type PaymentsDTO struct {
	Base     float64 `json:"base"`
	Solo     float64 `json:"solo"`
	Saturday float64 `json:"saturday"`
	Bonus    float64 `json:"bonus"`
	Total    float64 `json:"total"`
}

// PaymentDTO is the computed pay of one person.
type PaymentDTO struct {
	Person   string      `json:"person"`
	Hours    HoursDTO    `json:"hours"`
	Payments PaymentsDTO `json:"payments"`
	Rates    RatesDTO    `json:"rates"`
	Bonus    BonusDTO    `json:"bonus"`
}

// TotalsDTO sums every PaymentDTO of a week.
type TotalsDTO struct {
	People   int         `json:"people"`
	Hours    HoursDTO    `json:"hours"`
	Payments PaymentsDTO `json:"payments"`
}

// IssueDTO is a validation finding for one cell, or for the whole workbook
// when Week is 0.
type IssueDTO struct {
	Week   int    `json:"week"`
	Person string `json:"person"`
	Day    string `json:"day"`
	Error  string `json:"error"`
}

// WeekDTO is everything the week view renders.
type WeekDTO struct {
	Week     int               `json:"week"`
	Days     []string          `json:"days"`
	Dates    map[string]string `json:"dates"`
	Labels   map[string]string `json:"labels"`
	People   []PersonDTO       `json:"people"`
	Payments []PaymentDTO      `json:"payments"`
	Totals   TotalsDTO         `json:"totals"`
	Issues   []IssueDTO        `json:"issues"`
}

// RevisionDTO is one entry of the save history.
type RevisionDTO struct {
	ID      string `json:"id"`
	SavedAt string `json:"saved_at"`
	Title   string `json:"title"`
	Weeks   int    `json:"weeks"`
	Reason  string `json:"reason,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ShiftRequest replaces a cell. Kind defaults to "working".
type ShiftRequest struct {
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// RatesRequest updates any subset of the three rates.
type RatesRequest struct {
	A *decimal.Decimal `json:"A,omitempty"`
	B *decimal.Decimal `json:"B,omitempty"`
	C *decimal.Decimal `json:"C,omitempty"`
}

type BonusRequest struct {
	Enabled     bool            `json:"enabled"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type LabelRequest struct {
	Label string `json:"label"`
}

type TitleRequest struct {
	Title string `json:"title"`
}

type AddPersonRequest struct {
	Name   string `json:"name"`
	Leader bool   `json:"leader"`
}

type RenamePersonRequest struct {
	Name string `json:"name"`
}

type LeaderRequest struct {
	Leader bool `json:"leader"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toRatesDTO(r payroll.RateTable) RatesDTO {
	return RatesDTO{A: toFloat(r.A), B: toFloat(r.B), C: toFloat(r.C)}
}

func toBonusDTO(b payroll.BonusConfig) BonusDTO {
	return BonusDTO{Enabled: b.Enabled, Description: b.Description, Amount: toFloat(b.Amount)}
}

func toHoursDTO(h payroll.Hours) HoursDTO {
	return HoursDTO{Total: toFloat(h.Total), Solo: toFloat(h.Solo), Saturday: toFloat(h.Saturday)}
}

func toPaymentsDTO(p payroll.Payments) PaymentsDTO {
	return PaymentsDTO{
		Base:     toFloat(p.Base),
		Solo:     toFloat(p.Solo),
		Saturday: toFloat(p.Saturday),
		Bonus:    toFloat(p.Bonus),
		Total:    toFloat(p.Total),
	}
}

func toPaymentDTO(r payroll.PaymentResult) PaymentDTO {
	return PaymentDTO{
		Person:   string(r.Person),
		Hours:    toHoursDTO(r.Hours),
		Payments: toPaymentsDTO(r.Payments),
		Rates:    toRatesDTO(r.Rates),
		Bonus:    toBonusDTO(r.Bonus),
	}
}

func toTotalsDTO(t payroll.WeekTotals) TotalsDTO {
	return TotalsDTO{People: t.People, Hours: toHoursDTO(t.Hours), Payments: toPaymentsDTO(t.Payments)}
}

func toShiftDTO(s payroll.Shift) ShiftDTO {
	dto := ShiftDTO{Kind: string(s.Kind), Start: s.Start, End: s.End}
	if iv, ok := payroll.ParseShift(s); ok {
		dto.Hours = toFloat(payroll.MinutesToHours(iv.Minutes()))
	}
	return dto
}

func toIssueDTOs(issues []payroll.ShiftIssue) []IssueDTO {
	dtos := make([]IssueDTO, len(issues))
	for i, is := range issues {
		dtos[i] = IssueDTO{Week: is.Week + 1, Person: string(is.Person), Day: string(is.Day), Error: is.Err.Error()}
	}
	return dtos
}

func toRevisionDTO(r payroll.Revision) RevisionDTO {
	return RevisionDTO{
		ID:      string(r.ID),
		SavedAt: r.SavedAt.Format(time.RFC3339),
		Title:   r.Title,
		Weeks:   r.Weeks,
		Reason:  r.Reason,
	}
}

func dayStrings(days []payroll.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}
