package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/model"
	"github.com/project-spencer/dswe/pkg/zonal"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [scene...]",
		Short: "Classify scenes and print their zonal rows as JSON",
		Long: `Classify reads scenes from files, or one scene from stdin when no file or "-"
is given. Files ending in .zip are read as Collection 2 bundles, anything else
as a gob encoded scene. Scenes failing the collection filter are skipped.`,
		RunE: runClassify,
	}
}

// readScene loads a gob scene or a zipped bundle.
func readScene(path string, stdin io.Reader) (*model.Scene, []byte, error) {
	var (
		b   []byte
		err error
	)

	if path == "" || path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not read scene")
	}

	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		s, err := model.SceneFromZip(bytes.NewReader(b), int64(len(b)))
		return s, b, err
	}

	var s model.Scene
	if err := s.Decode(bytes.NewReader(b)); err != nil {
		return nil, nil, errors.Wrap(err, "could not decode scene")
	}
	return &s, b, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	var scenes []*model.Scene
	for _, path := range args {
		scene, _, err := readScene(path, cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, path)
		}
		scenes = append(scenes, scene)
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}

	kept := s.Filter.Apply(scenes)
	log.Infof("classifying %d of %d scenes", len(kept), len(scenes))

	all, err := s.loadSites()
	if err != nil {
		return err
	}

	dem, err := s.loadDEM()
	if err != nil {
		return err
	}

	run := newRunner(s, all, dem)
	rows := []zonal.Row{}

	for _, scene := range kept {
		out, err := run.process(cmd.Context(), scene)
		if err != nil {
			return err
		}
		rows = append(rows, out...)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
