package pages

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// TreeReport summarizes a static tree rewrite.
type TreeReport struct {
	Pages  int
	Copied int
	Links  map[rewrite.Outcome]int
	Clones int
}

func (r *TreeReport) add(res rewrite.Result) {
	if r.Links == nil {
		r.Links = make(map[rewrite.Outcome]int)
	}
	for _, c := range res.Changes {
		r.Links[c.Outcome]++
	}
	r.Clones += res.Clones()
}

// RewriteTree rewrites every *.html page under srcDir statically into outDir and
// copies all other files unchanged. When dryRun is set nothing is written.
func (p *Processor) RewriteTree(ctx context.Context, srcDir, outDir string, dryRun bool) (*TreeReport, error) {
	report := &TreeReport{Links: make(map[rewrite.Outcome]int)}

	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return nil, errors.FileSystemError("source directory not found").WithContext("path", srcDir).Build()
	}
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve source directory").
			WithContext("path", srcDir).Build()
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve output directory").
			WithContext("path", outDir).Build()
	}
	if Nested(absOut, absSrc) {
		return nil, errors.ValidationError("source directory must not be inside the output directory").
			WithContext("source", srcDir).WithContext("output", outDir).Build()
	}

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(outDir, rel)
		if d.IsDir() {
			// The output tree may live inside the source; never walk what we write.
			if rel != "." && filepath.Join(absSrc, rel) == absOut {
				return fs.SkipDir
			}
			if dryRun {
				return nil
			}
			return os.MkdirAll(dst, 0o750)
		}

		if !strings.EqualFold(filepath.Ext(path), ".html") {
			report.Copied++
			if dryRun {
				return nil
			}
			return copyFile(path, dst)
		}

		res, err := p.rewriteFile(ctx, path, dst, DocumentName(filepath.ToSlash(rel)), dryRun)
		if err != nil {
			return err
		}
		report.Pages++
		report.add(res)
		return nil
	})
	if err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return report, err
		}
		return report, errors.WrapError(err, errors.CategoryFileSystem, "failed to rewrite documentation tree").
			WithContext("source", srcDir).WithContext("output", outDir).Build()
	}

	slog.Info("Rewrote documentation tree",
		logfields.Path(outDir),
		slog.Int("pages", report.Pages),
		slog.Int("copied", report.Copied),
		slog.Int("clones", report.Clones))
	return report, nil
}

func (p *Processor) rewriteFile(ctx context.Context, src, dst, document string, dryRun bool) (rewrite.Result, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return rewrite.Result{}, err
	}
	defer func() {
		_ = in.Close() // read-only
	}()

	var buf bytes.Buffer
	res, err := p.ProcessPage(ctx, in, &buf, Page{Document: document})
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryRender, "failed to rewrite page").
			WithContext("file", src).Build()
	}
	if dryRun {
		return res, nil
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o600); err != nil {
		return res, err
	}
	return res, nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	dstFile, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// Nested reports whether child is parent itself or lies below it. Both paths must
// be absolute and clean.
func Nested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
