package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"pasfront/internal/diag"
	"pasfront/internal/source"
	"pasfront/internal/trace"
)

// SourceExts are the extensions treated as units when walking a directory.
var SourceExts = []string{".pas", ".dpr", ".dpk"}

func isSourceFile(path string) bool {
	return slices.Contains(SourceExts, strings.ToLower(filepath.Ext(path)))
}

// listSourceFiles returns every unit under dir in lexical order.
func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir() && isSourceFile(path):
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// PreprocessDir preprocesses every unit under dir in parallel. Results
// follow the sorted file order; a file that fails to load gets a result
// with only an I/O diagnostic.
func PreprocessDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []*PreprocessResult, error) {
	files, err := listSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSet()
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	span := trace.Begin(opts.tracer(), trace.ScopeDriver, "preprocess dir").WithExtra("dir", dir)
	defer span.End("")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*PreprocessResult, len(files)) // one slot per worker
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id, loadErr := fileSet.Load(path)
			if loadErr != nil {
				bag := diag.NewBag(opts.maxDiagnostics())
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+loadErr.Error()))
				results[i] = &PreprocessResult{FileSet: fileSet, Bag: bag}
				return nil
			}
			results[i] = preprocessFile(fileSet, fileSet.Get(id), &opts)
			return nil
		})
	}

	err = g.Wait()
	return fileSet, results, err
}
