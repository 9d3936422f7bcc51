package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"bindgen/internal/backend"
	"bindgen/internal/driver"
	"bindgen/internal/project"
)

// inputPlan is what a generate or check run works on: the declaration files,
// the backend settings and where documents go.
type inputPlan struct {
	Root     string
	Files    []string
	Lang     string
	Config   backend.Config
	OutDir   string
	Manifest *project.Manifest
}

// resolveInputs turns the optional path argument into an inputPlan.
//   - a bindgen.toml file, or a directory governed by one, uses the manifest;
//   - a single declaration file is generated with default settings;
//   - a directory without a manifest takes every declaration file in it.
func resolveInputs(path string) (*inputPlan, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if !info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		if filepath.Base(abs) == project.ManifestName {
			m, err := project.ParseManifest(abs)
			if err != nil {
				return nil, err
			}
			return planFromManifest(m)
		}
		if driver.FormatOf(abs) == driver.FormatUnknown {
			return nil, fmt.Errorf("%s: not a declaration file (expected .toml, .yaml or .yml)", path)
		}
		root := filepath.Dir(abs)
		return &inputPlan{
			Root:   root,
			Files:  []string{abs},
			Lang:   project.DefaultLang,
			OutDir: filepath.Join(root, project.DefaultOutputDir),
		}, nil
	}

	m, ok, err := project.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if ok {
		return planFromManifest(m)
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	files, err := driver.ListDeclFiles(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no declaration files in %s and no %s found", path, project.ManifestName)
	}
	return &inputPlan{
		Root:   root,
		Files:  files,
		Lang:   project.DefaultLang,
		OutDir: filepath.Join(root, project.DefaultOutputDir),
	}, nil
}

func planFromManifest(m *project.Manifest) (*inputPlan, error) {
	files, err := m.InputFiles()
	if err != nil {
		return nil, err
	}
	return &inputPlan{
		Root:     m.Root,
		Files:    files,
		Lang:     m.Config.Target.Lang,
		Config:   m.BackendConfig(),
		OutDir:   m.OutputDir(),
		Manifest: m,
	}, nil
}

// watchDirs lists the directories whose changes should trigger a rerun.
func (p *inputPlan) watchDirs() []string {
	dirs := []string{p.Root}
	for _, f := range p.Files {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}
