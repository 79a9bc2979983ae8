// Package compile turns authored assets into the binary files the runtime
// loads. Only scenes are compiled today.
package compile

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Asset extensions.
const (
	SceneExt         = ".scene"
	CompiledSceneExt = ".cscene"
)

// CompilePath compiles src into outDir. A file is compiled to outDir under
// its base name; a directory is walked and every asset is written at its
// path relative to src, creating directories as needed. Files whose
// extension is not a known asset type are skipped. outDir must already
// exist. It returns the number of assets written.
func CompilePath(src, outDir string, logger zerolog.Logger) (int, error) {
	info, err := os.Stat(outDir)
	if err != nil {
		return 0, eris.Wrap(err, "output directory")
	}
	if !info.IsDir() {
		return 0, eris.Wrap(ErrNotDirectory, outDir)
	}
	info, err = os.Stat(src)
	if err != nil {
		return 0, eris.Wrap(err, "source")
	}

	if !info.IsDir() {
		ok, err := compileAsset(src, filepath.Join(outDir, filepath.Base(src)), logger)
		if ok {
			return 1, err
		}
		return 0, err
	}

	written := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return eris.Wrap(err, path)
		}
		ok, err := compileAsset(path, filepath.Join(outDir, rel), logger)
		if ok {
			written++
		}
		return err
	})
	return written, err
}

// compileAsset compiles one file to dst, with dst's extension replaced by the
// compiled one. It reports whether the file was a known asset type.
func compileAsset(src, dst string, logger zerolog.Logger) (bool, error) {
	ext := filepath.Ext(src)
	if ext != SceneExt {
		logger.Debug().Str("path", src).Msg("skipping file with unknown asset type")
		return false, nil
	}
	dst = strings.TrimSuffix(dst, ext) + CompiledSceneExt

	in, err := os.Open(src)
	if err != nil {
		return true, eris.Wrap(err, "open asset")
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return true, eris.Wrap(err, "create output directory")
	}
	out, err := os.Create(dst)
	if err != nil {
		return true, eris.Wrap(err, "create output file")
	}
	if err := Compile(in, out); err != nil {
		out.Close()
		os.Remove(dst)
		return true, eris.Wrap(err, src)
	}
	if err := out.Close(); err != nil {
		return true, eris.Wrap(err, dst)
	}
	logger.Info().Str("source", src).Str("output", dst).Msg("compiled scene")
	return true, nil
}
