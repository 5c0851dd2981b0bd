package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/turtacn/smiles-algebra/internal/application/structure"
	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

func newQueryCmd() *cobra.Command {
	var report bool

	cmd := &cobra.Command{
		Use:   "query <jsonpath> <smiles|->",
		Short: "Select parts of a structure with a JSONPath expression",
		Long: "query evaluates a JSONPath expression against the JSON tree of a parsed\n" +
			"SMILES string, or against its analysis report with --report.\n\n" +
			"  smiles query '$.rings[*].size' c1ccc2ccccc2c1\n" +
			"  smiles query --report '$.roundtrip.status' C%05CC%05",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			x, err := jp.ParseString(args[0])
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid JSONPath "+args[0])
			}
			s, err := smilesArg(cmd, args[1])
			if err != nil {
				return err
			}

			var raw []byte
			if report {
				ctx, cancel := commandContext(cmd, cliCtx)
				defer cancel()
				rep, err := cliCtx.NewService(structure.OptionsFromConfig(cliCtx.Config)).Analyze(ctx, s)
				if err != nil {
					return err
				}
				if raw, err = json.Marshal(rep); err != nil {
					return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode report")
				}
			} else {
				n, err := smiles.Parse(s)
				if err != nil {
					return err
				}
				if raw, err = ast.MarshalNode(n); err != nil {
					return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode structure")
				}
			}

			var doc interface{}
			if err := json.Unmarshal(raw, &doc); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "cannot decode document")
			}
			results := x.Get(doc)
			if results == nil {
				results = []interface{}{}
			}
			return PrintResult(cmd, results, func(w io.Writer) error {
				return writeMatches(w, results)
			})
		},
	}

	cmd.Flags().BoolVar(&report, "report", false, "query the analysis report instead of the structure")
	return cmd
}

// writeMatches prints one match per line; strings bare, everything else as JSON.
func writeMatches(w io.Writer, results []interface{}) error {
	for _, r := range results {
		if s, ok := r.(string); ok {
			fmt.Fprintln(w, s)
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode match")
		}
		fmt.Fprintln(w, string(b))
	}
	return nil
}
