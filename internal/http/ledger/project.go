// Package ledger exposes projects, payments, expenses and team members over
// HTTP.
package ledger

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/dashboard"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

const maxUploadSize = 10 << 20

type Projects interface {
	CreateProject(ctx context.Context, actor access.Actor, params ledger.ProjectParams) (*ledger.Project, error)
	GetProject(ctx context.Context, actor access.Actor, id uuid.UUID) (*ledger.Project, error)
	ListProjects(ctx context.Context, actor access.Actor) ([]*ledger.Project, error)
	UpdateProject(ctx context.Context, actor access.Actor, id uuid.UUID, params ledger.ProjectParams) (*ledger.Project, error)
	DeleteProject(ctx context.Context, actor access.Actor, id uuid.UUID) error
	ImportStatement(ctx context.Context, actor access.Actor, projectID uuid.UUID, lines []ledger.StatementLine) (*ledger.ImportResult, error)
	ConfirmImport(ctx context.Context, actor access.Actor, projectID uuid.UUID, lines []ledger.StatementLine) (*ledger.ImportResult, error)
}

type Details interface {
	ProjectDetail(ctx context.Context, actor access.Actor, projectID uuid.UUID, filter *period.Month) (*dashboard.ProjectDetail, error)
}

type Statements interface {
	Parse(format importer.Format, r io.Reader) ([]ledger.StatementLine, error)
}

type ProjectHandler struct {
	projects   Projects
	details    Details
	statements Statements
}

func NewProjectHandler(projects Projects, details Details, statements Statements) *ProjectHandler {
	return &ProjectHandler{projects: projects, details: details, statements: statements}
}

func (h *ProjectHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/details", h.detail)
	r.Post("/{id}/import", h.importStatement)
	r.Post("/{id}/import/confirm", h.confirmImport)
}

type projectRequest struct {
	Name        string          `json:"name"`
	ClientName  string          `json:"client_name"`
	StartDate   string          `json:"start_date"`
	EndDate     *string         `json:"end_date,omitempty"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

func (req projectRequest) params() (ledger.ProjectParams, error) {
	p := ledger.ProjectParams{
		Name:        req.Name,
		ClientName:  req.ClientName,
		TotalBudget: req.TotalBudget,
		Currency:    req.Currency,
		Description: req.Description,
	}

	if req.StartDate != "" {
		start, err := respond.Date(req.StartDate)
		if err != nil {
			return p, err
		}

		p.StartDate = start
	}

	end, err := respond.OptionalDate(req.EndDate)
	if err != nil {
		return p, err
	}

	p.EndDate = end

	return p, nil
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListProjects(r.Context(), respond.Actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]projectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toProjectResponse(p)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	params, err := req.params()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.projects.CreateProject(r.Context(), respond.Actor(r), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toProjectResponse(p))
}

func (h *ProjectHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.projects.GetProject(r.Context(), respond.Actor(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toProjectResponse(p))
}

func (h *ProjectHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req projectRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	params, err := req.params()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.projects.UpdateProject(r.Context(), respond.Actor(r), id, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toProjectResponse(p))
}

func (h *ProjectHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.projects.DeleteProject(r.Context(), respond.Actor(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	filter, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	d, err := h.details.ProjectDetail(r.Context(), respond.Actor(r), id, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toProjectDetailResponse(d))
}

// importStatement takes a multipart upload with a "file" and an optional
// "format" field. Lines matching existing records are answered with 409 and
// nothing is written.
func (h *ProjectHandler) importStatement(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.Error(w, r, apperror.InvalidArgument("failed to parse form: %s", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, apperror.InvalidArgument("file field is required"))
		return
	}
	defer file.Close()

	lines, err := h.statements.Parse(importer.Format(r.FormValue("format")), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.projects.ImportStatement(r.Context(), respond.Actor(r), id, lines)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       toLineDTOs(result.New),
			Conflicts: make([]conflictResponse, len(result.Conflicts)),
		}

		for i, c := range result.Conflicts {
			resp.Conflicts[i] = conflictResponse{Incoming: toLineDTO(c.Incoming), ExistingID: c.ExistingID}
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, toImportSuccess(result))
}

type confirmRequest struct {
	Lines []statementLineDTO `json:"lines"`
}

func (h *ProjectHandler) confirmImport(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req confirmRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	lines := make([]ledger.StatementLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		date, err := respond.Date(l.Date)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		lines = append(lines, ledger.StatementLine{
			Date:        date,
			Description: l.Description,
			Amount:      l.Amount,
			Direction:   l.Direction,
		})
	}

	result, err := h.projects.ConfirmImport(r.Context(), respond.Actor(r), id, lines)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toImportSuccess(result))
}

func toImportSuccess(result *ledger.ImportResult) importSuccessResponse {
	return importSuccessResponse{
		Imported: len(result.Payments) + len(result.Expenses),
		Payments: toPaymentList(result.Payments),
		Expenses: toExpenseList(result.Expenses),
	}
}
