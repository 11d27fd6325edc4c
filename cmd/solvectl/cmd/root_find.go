package cmd

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/newtonkit/internal/server"
)

func rootCmd() *cobra.Command {
	var req server.RootRequest

	cmd := &cobra.Command{
		Use:   "root",
		Short: "Solve f(x) = target for x",
		Long: `Solves f(x) = target with Newton-Raphson or Halley's method.
Expressions use x as the variable, ** for powers and the functions
sin, cos, tan, exp, log, sqrt, abs, pow and friends. Derivatives that
are not given are approximated by central differences.`,
		Example: `  solvectl root --f "x ** 2 - 4" --df "2 * x" --x0 3
  solvectl root --f "cos(x) - x" --method halley --x0 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newServer(cmd)
			if err != nil {
				return err
			}

			setStopping(cmd, &req.StoppingParams)
			res, err := srv.FindRoot(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Function, "f", "", "function of x")
	f.StringVar(&req.Derivative, "df", "", "first derivative of f (optional)")
	f.StringVar(&req.SecondDerivative, "ddf", "", "second derivative of f, used by halley (optional)")
	f.StringVar(&req.Method, "method", server.MethodNewton, "newton or halley")
	f.Float64Var(&req.InitialGuess, "x0", 0, "initial guess")
	f.Float64Var(&req.Target, "target", 0, "target value of f")
	f.BoolVar(&req.History, "history", false, "include every iteration in the output")
	addStoppingFlags(cmd)

	_ = cmd.MarkFlagRequired("f")
	return cmd
}
