package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	xerrors "github.com/xcel-dev/xcel/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code",
		Long: `Describe an error code printed by xcel, such as X103.

Without a code, every registered code is listed.

Examples:
  xcel explain
  xcel explain X103`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listCodes(cmd.OutOrStdout())
				return nil
			}
			return explainCode(cmd.OutOrStdout(), args[0])
		},
	}
}

func listCodes(w io.Writer) {
	for _, code := range xerrors.GetAllCodes() {
		tmpl, _ := xerrors.GetTemplate(code)
		fmt.Fprintf(w, "  %s  %-9s %s\n", code, tmpl.Category, tmpl.Message)
	}
}

func explainCode(w io.Writer, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := xerrors.GetTemplate(code); !ok {
		return xerrors.New(xerrors.CodeUnknownCode).WithDetail(code + " is not an xcel error code.")
	}
	fmt.Fprint(w, xerrors.New(code).Format())
	return nil
}
