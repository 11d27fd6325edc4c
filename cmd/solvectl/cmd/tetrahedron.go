package cmd

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/newtonkit/internal/server"
)

func tetrahedronCmd() *cobra.Command {
	var (
		req   server.TetrahedronRequest
		guess []float64
	)

	cmd := &cobra.Command{
		Use:   "tetrahedron",
		Short: "Find the apex edges of a tetrahedron",
		Long: `Finds the three apex edge lengths of a tetrahedron from the side
lengths of its base triangle and the three angles, in degrees, at its apex.
Base side a lies opposite apex angle a.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newServer(cmd)
			if err != nil {
				return err
			}

			req.InitialGuess = guess
			setStopping(cmd, &req.StoppingParams)
			if cmd.Flags().Changed("attenuation") {
				v, _ := cmd.Flags().GetFloat64("attenuation")
				req.Attenuation = &v
			}

			res, err := srv.SolveTetrahedron(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&req.Base.A, "a", 0, "base side a")
	f.Float64Var(&req.Base.B, "b", 0, "base side b")
	f.Float64Var(&req.Base.C, "c", 0, "base side c")
	f.Float64Var(&req.ApexDegrees.A, "theta-a", 0, "apex angle opposite side a, in degrees")
	f.Float64Var(&req.ApexDegrees.B, "theta-b", 0, "apex angle opposite side b, in degrees")
	f.Float64Var(&req.ApexDegrees.C, "theta-c", 0, "apex angle opposite side c, in degrees")
	f.Float64SliceVar(&guess, "guess", []float64{1, 1, 1}, "initial edge lengths i,j,k")
	f.Float64("attenuation", 0, "step attenuation (default from SOLVER_ATTENUATION)")
	f.BoolVar(&req.History, "history", false, "include every iteration in the output")
	addStoppingFlags(cmd)

	for _, name := range []string{"a", "b", "c", "theta-a", "theta-b", "theta-c"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func addStoppingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("max-iterations", 0, "iteration cap (default from SOLVER_MAX_ITERATIONS)")
	f.Float64("tolerance", 0, "absolute target tolerance (default from SOLVER_TOLERANCE)")
	f.Bool("use-all-iterations", false, "keep iterating up to the cap after the target is met")
}

func setStopping(cmd *cobra.Command, p *server.StoppingParams) {
	f := cmd.Flags()
	if f.Changed("max-iterations") {
		v, _ := f.GetInt("max-iterations")
		p.MaxIterations = &v
	}
	if f.Changed("tolerance") {
		v, _ := f.GetFloat64("tolerance")
		p.Tolerance = &v
	}
	p.UseAllIterations, _ = f.GetBool("use-all-iterations")
}
