package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/smiles-algebra/internal/application/structure"
	"github.com/turtacn/smiles-algebra/internal/config"
	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/codegen"
	"github.com/turtacn/smiles-algebra/pkg/smiles/schema"
)

// structureView is the printable form of a node.
type structureView struct {
	Kind   string          `json:"kind"`
	SMILES string          `json:"smiles"`
	AST    json.RawMessage `json:"ast"`
}

func viewOf(n ast.Node) (*structureView, error) {
	s, err := smiles.BuildSMILES(n)
	if err != nil {
		return nil, err
	}
	raw, err := ast.MarshalNode(n)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode structure")
	}
	return &structureView{Kind: n.Kind().String(), SMILES: s, AST: raw}, nil
}

func printView(cmd *cobra.Command, n ast.Node) error {
	v, err := viewOf(n)
	if err != nil {
		return err
	}
	return PrintResult(cmd, v, func(w io.Writer) error {
		fmt.Fprintf(w, "kind:   %s\nsmiles: %s\nast:    %s\n", v.Kind, v.SMILES, v.AST)
		return nil
	})
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <smiles|->",
		Short: "Parse a SMILES string and show its structural tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := smilesArg(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := smiles.Parse(s)
			if err != nil {
				return err
			}
			return printView(cmd, n)
		},
	}
}

func newRoundTripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <smiles|->",
		Short: "Parse and emit twice and classify the result",
		Long: "roundtrip reports perfect when emission returns the input, stabilized\n" +
			"when the first emission is a fixed point, and unstable otherwise.\n" +
			"An unstable result exits non-zero.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := smilesArg(cmd, args[0])
			if err != nil {
				return err
			}
			rt, err := smiles.ValidateRoundTrip(s)
			if err != nil {
				return err
			}
			err = PrintResult(cmd, rt, func(w io.Writer) error {
				fmt.Fprintf(w, "status: %s\ninput:  %s\nfirst:  %s\nsecond: %s\n", rt.Status, rt.Input, rt.First, rt.Second)
				if rt.Advice != "" {
					fmt.Fprintf(w, "advice: %s\n", rt.Advice)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if rt.Status == smiles.StatusUnstable {
				return errors.Newf(errors.ErrCodeValidation, "round trip of %q is unstable", s)
			}
			return nil
		},
	}
}

type codeOutput struct {
	Dialect string `json:"dialect"`
	Code    string `json:"code"`
}

func newCodeCmd() *cobra.Command {
	var prefix, dialect, pkg, fn string

	cmd := &cobra.Command{
		Use:   "code <smiles|->",
		Short: "Decompile a SMILES string into a build script or Go source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			dc := cliCtx.Config.Decompiler
			if prefix != "" {
				dc.Prefix = prefix
			}
			if dialect != "" {
				dc.Dialect = dialect
			}
			if pkg != "" {
				dc.GoPackage = pkg
			}
			if fn != "" {
				dc.GoFunc = fn
			}

			s, err := smilesArg(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := smiles.Parse(s)
			if err != nil {
				return err
			}

			var code string
			switch dc.Dialect {
			case config.DialectScript:
				code, err = smiles.ToCode(n, dc.Prefix)
			case config.DialectGo:
				code, err = smiles.ToGo(n, dc.Prefix, codegen.GoOptions{Package: dc.GoPackage, Func: dc.GoFunc})
			default:
				return errors.Newf(errors.ErrCodeBadRequest, "unknown dialect %q (want script or go)", dc.Dialect)
			}
			if err != nil {
				return err
			}
			out := codeOutput{Dialect: dc.Dialect, Code: code}
			return PrintResult(cmd, out, func(w io.Writer) error {
				_, err := io.WriteString(w, code)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&prefix, "prefix", "", "binding prefix (default from config, \"v\")")
	f.StringVar(&dialect, "dialect", "", "script or go (default from config)")
	f.StringVar(&pkg, "package", "", "package clause for the go dialect")
	f.StringVar(&fn, "func", "", "function name for the go dialect")
	return cmd
}

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <script-file|->",
		Short: "Run a build script and print the structure it binds last",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			n, err := smiles.Execute(ctx, string(src))
			if err != nil {
				return err
			}
			return printView(cmd, n)
		},
	}
}

type validation struct {
	Input string             `json:"input"`
	Valid bool               `json:"valid"`
	Error *structure.Problem `json:"error,omitempty"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [smiles...]",
		Short: "Check SMILES strings for syntax errors",
		Long: "validate checks every argument, or every line of stdin when no argument\n" +
			"is given, and points at the offending offset. Any failure exits non-zero.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				inputs = lines
			}

			results := make([]validation, len(inputs))
			failed := 0
			for i, s := range inputs {
				err := smiles.Validate(s)
				results[i] = validation{Input: s, Valid: err == nil, Error: structure.ProblemOf(err)}
				if err != nil {
					failed++
				}
			}

			err := PrintResult(cmd, results, func(w io.Writer) error {
				for _, r := range results {
					writeValidation(w, r)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if failed > 0 {
				return errors.Newf(errors.ErrCodeValidation, "%d of %d inputs are invalid", failed, len(inputs))
			}
			return nil
		},
	}
}

const validationIndent = "      "

// writeValidation prints one verdict with a caret under the failing offset.
func writeValidation(w io.Writer, r validation) {
	if r.Valid {
		fmt.Fprintf(w, "ok    %s\n", r.Input)
		return
	}
	fmt.Fprintf(w, "FAIL  %s\n", r.Input)
	pad := validationIndent
	if r.Error.Offset != nil {
		pad += strings.Repeat(" ", *r.Error.Offset)
	}
	fmt.Fprintf(w, "%s^ %s %s\n", pad, r.Error.Code, r.Error.Message)
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <ast.json|->",
		Short: "Check a structure JSON document against the schema and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			v, err := schema.Default()
			if err != nil {
				return err
			}
			n, err := v.Decode(data)
			if err != nil {
				return err
			}
			return printView(cmd, n)
		},
	}
}
