package solverapi

import (
	"maxflow/pkg/apperror"
)

// Validate проверяет форму запроса; содержимое сети проверяет сервис.
func (r *SolveRequest) Validate() error {
	if r.Network == nil {
		return apperror.NewWithField(apperror.CodeNilInput, "network is required", "network")
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return apperror.NewWithField(apperror.CodeInvalidArgument, err.Error(), "mode")
	}
	if r.Epsilon < 0 {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "epsilon must be >= 0", "epsilon")
	}
	if r.InitialFlow != nil && len(r.InitialFlow) != len(r.Network.Arcs) {
		return apperror.NewWithField(apperror.CodeInvalidArgument,
			"initial_flow must have one entry per arc", "initial_flow").
			WithDetails("arc_count", len(r.Network.Arcs)).
			WithDetails("initial_flow_len", len(r.InitialFlow))
	}
	return nil
}

func (r *GetSolveRequest) Validate() error {
	if r.SolveID == "" {
		return apperror.NewWithField(apperror.CodeInvalidArgument, "solve_id is required", "solve_id")
	}
	return nil
}

func (r *ListSolvesRequest) Validate() error {
	if r.Limit < 0 || r.Offset < 0 {
		return apperror.New(apperror.CodeInvalidArgument, "limit and offset must be >= 0")
	}
	return nil
}

func (r *ExportReportRequest) Validate() error {
	switch r.Format {
	case FormatXLSX, FormatPDF:
	default:
		return apperror.NewWithField(apperror.CodeInvalidArgument, "unknown report format "+string(r.Format), "format")
	}
	if r.Solve == nil {
		return apperror.NewWithField(apperror.CodeNilInput, "solve is required", "solve")
	}
	return r.Solve.Validate()
}
