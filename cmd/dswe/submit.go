package main

import (
	"encoding/json"
	"strings"

	"github.com/project-spencer/dswe/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <scene>",
		Short: "Send a scene to a running server",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubmit,
	}

	cmd.Flags().String("endpoint", "http://localhost:8080", "server base URL")
	_ = viper.BindPFlag("endpoint", cmd.Flags().Lookup("endpoint"))

	return cmd
}

func runSubmit(cmd *cobra.Command, args []string) error {
	path := args[0]
	base := strings.TrimRight(viper.GetString("endpoint"), "/")

	scene, b, err := readScene(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		rows, err = client.MakeZipReq(cmd.Context(), b, base+"/scenes/zip")
	} else {
		rows, err = client.MakeReq(cmd.Context(), scene, base+"/scenes")
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
